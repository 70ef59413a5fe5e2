package unitofwork

import (
	"context"

	"github.com/ywqqqq/xuedong-ai/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	MessageRepository() contract.MessageRepository
	TurnDocumentRepository() contract.TurnDocumentRepository
	KnowledgeRepository() contract.KnowledgeRepository
}
