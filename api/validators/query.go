package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/nathanrivera/shopstream-backend/pkg/errors"
	"github.com/nathanrivera/shopstream-backend/pkg/pagination"
)

// PaginationFromQuery reads limit/cursor query parameters. A non-numeric
// limit is a validation error; bounds are enforced later by NormalizeLimit.
func PaginationFromQuery(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return params, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer")
	}
	params.Limit = limit
	return params, nil
}
