package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/store"
)

// Router-level messages.
const (
	MsgRouteNotFound    = "Ruta no encontrada"
	MsgMethodNotAllowed = "Método no permitido"
	MsgInvalidID        = "ID inválido"
)

// ok writes a success envelope with extra top-level fields.
func ok(w http.ResponseWriter, status int, fields map[string]any) error {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	guard.WriteJSON(w, status, body)
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name, msg string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, guard.BadRequest(msg)
	}
	return id, nil
}

// notFound maps store.ErrNotFound to a 404 with msg and passes other errors through.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return guard.NotFound(msg)
	}
	return err
}

// stockMessage renders a stock shortfall for the client.
func stockMessage(err error) (string, bool) {
	var se *store.StockError
	if errors.As(err, &se) {
		return "Solo hay " + strconv.Itoa(se.Available) + " unidades disponibles", true
	}
	return "", false
}

// queryInt parses key within [min, max], returning def when absent or out of range.
func queryInt(r *http.Request, key string, def, min, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < min || v > max {
		return def
	}
	return v
}

// totalPages rounds total/limit up.
func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
