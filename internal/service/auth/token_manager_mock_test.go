package auth

import (
	"sync"

	"github.com/heartmarshall/docstore/internal/auth"
)

var _ tokenManager = &tokenManagerMock{}

type tokenManagerMock struct {
	IssueFunc    func(userID, sessionID string) (string, error)
	ValidateFunc func(token string) (auth.SessionClaims, error)

	calls struct {
		Issue []struct {
			UserID    string
			SessionID string
		}
		Validate []struct {
			Token string
		}
	}
	lockIssue    sync.RWMutex
	lockValidate sync.RWMutex
}

func (mock *tokenManagerMock) Issue(userID, sessionID string) (string, error) {
	if mock.IssueFunc == nil {
		panic("tokenManagerMock.IssueFunc: method is nil but tokenManager.Issue was just called")
	}
	callInfo := struct {
		UserID    string
		SessionID string
	}{UserID: userID, SessionID: sessionID}
	mock.lockIssue.Lock()
	mock.calls.Issue = append(mock.calls.Issue, callInfo)
	mock.lockIssue.Unlock()
	return mock.IssueFunc(userID, sessionID)
}

func (mock *tokenManagerMock) IssueCalls() []struct {
	UserID    string
	SessionID string
} {
	mock.lockIssue.RLock()
	calls := mock.calls.Issue
	mock.lockIssue.RUnlock()
	return calls
}

func (mock *tokenManagerMock) Validate(token string) (auth.SessionClaims, error) {
	if mock.ValidateFunc == nil {
		panic("tokenManagerMock.ValidateFunc: method is nil but tokenManager.Validate was just called")
	}
	callInfo := struct {
		Token string
	}{Token: token}
	mock.lockValidate.Lock()
	mock.calls.Validate = append(mock.calls.Validate, callInfo)
	mock.lockValidate.Unlock()
	return mock.ValidateFunc(token)
}

func (mock *tokenManagerMock) ValidateCalls() []struct {
	Token string
} {
	mock.lockValidate.RLock()
	calls := mock.calls.Validate
	mock.lockValidate.RUnlock()
	return calls
}
