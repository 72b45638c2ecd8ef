package services

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

func bcryptCostOf(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}

type sentMail struct {
	Kind  string
	To    string
	Value string
}

// fakeMailer records what would have been sent and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

var errMailDown = errors.New("smtp: connection refused")

func (f *fakeMailer) SendVerificationEmail(email, otp string) error {
	return f.record("verification", email, otp)
}

func (f *fakeMailer) SendPasswordResetEmail(email, token string) error {
	return f.record("reset", email, token)
}

func (f *fakeMailer) record(kind, to, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errMailDown
	}
	f.sent = append(f.sent, sentMail{Kind: kind, To: to, Value: value})
	return nil
}

func (f *fakeMailer) last(kind string) (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Kind == kind {
			return f.sent[i], true
		}
	}
	return sentMail{}, false
}

func (f *fakeMailer) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.Kind == kind {
			n++
		}
	}
	return n
}
