package services

import (
	"github.com/stretchr/testify/mock"
)

// MockMailer records outbound mail instead of dialing SMTP.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(toEmail, username, resetLink string) error {
	args := m.Called(toEmail, username, resetLink)
	return args.Error(0)
}

// anyArg matches any argument in mock expectations.
var anyArg = mock.Anything
