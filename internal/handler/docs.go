package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# AdStream API

Creators list upcoming videos with ad slots, brands bid on slots, and an accepted bid becomes a deal.

## Auth

All /api/* routes require a Bearer JWT (HS256) with claims sub, role (creator|brand|admin)
and optionally channel_id. Health endpoints are public.
Development tokens: adstream token -sub <id> -role <role>.

## Money

Amounts are decimal strings with two places, e.g. "150.00". Requests accept strings or numbers.

## Errors

Errors use the envelope {code, message, meta: {kind}}.
kind is one of not_found, unauthorized, forbidden, conflict, invalid_state, invalid_argument, infrastructure.
conflict means another request won a race; refresh and retry.

## Routes

- POST /api/v1/listings
- POST /api/v1/listings/{id}/slots
- GET  /api/v1/listings/{id}
- GET  /api/v1/listings/mine
- GET  /api/v1/listings/discover?topic=
- POST /api/v1/bids
- GET  /api/v1/bids?status=&slot_id=
- GET  /api/v1/bids/{id}
- POST /api/v1/bids/{id}/accept
- POST /api/v1/bids/{id}/reject
- GET  /api/v1/deals?status=active|completed|pending
- GET  /api/v1/deals/{id}
- GET  /api/v1/deals/{id}/ledger
- POST /api/v1/deals/{id}/deliver
- POST /api/v1/deals/{id}/review
- POST /api/v1/deals/{id}/payment
- GET  /api/v1/system-settings
- PUT  /api/v1/system-settings/switches/{name}
- GET  /healthz
- GET  /readyz
- GET  /swagger/index.html
`)
	})
}
