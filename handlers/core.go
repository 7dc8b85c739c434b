package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/prathambahekar/expense-mananger/ledger"
	"github.com/prathambahekar/expense-mananger/utils"
)

// Core is the shared settlement-netting engine, wired in main.
var Core *ledger.Ledger

func InitCore(l *ledger.Ledger) {
	Core = l
}

// respondLedgerError maps the core's typed errors onto HTTP statuses.
func respondLedgerError(c *gin.Context, err error) {
	var (
		validation *ledger.ValidationError
		authz      *ledger.AuthorizationError
		state      *ledger.StateError
		conflict   *ledger.ConflictError
		notFound   *ledger.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		utils.BadRequest(c, validation.Reason)
	case errors.As(err, &authz):
		utils.Forbidden(c, authz.Reason)
	case errors.As(err, &state):
		utils.Conflict(c, err.Error())
	case errors.As(err, &conflict):
		utils.Conflict(c, conflict.Reason)
	case errors.As(err, &notFound):
		utils.NotFound(c, err.Error())
	default:
		utils.InternalError(c, "Something went wrong")
	}
}
