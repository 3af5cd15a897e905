package http

import (
	"net/http"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/auth"
)

const clientNotFound = "Client not found"

// handleListClients handles GET /api/clients.
func (a *Adapter) handleListClients(w http.ResponseWriter, r *http.Request) error {
	status := api.ClientStatus(r.URL.Query().Get("status"))

	list, err := a.clients.List(r.Context(), auth.AdvisorID(r.Context()), status)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, api.ClientListResponse{
		Success:   true,
		Clients:   list,
		Count:     len(list),
		RequestID: requestID(r),
	})
	return nil
}

// handleCreateClient handles POST /api/clients.
func (a *Adapter) handleCreateClient(w http.ResponseWriter, r *http.Request) error {
	var req api.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	c, err := a.clients.Create(r.Context(), auth.AdvisorID(r.Context()), &req)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, api.ClientResponse{
		Success:   true,
		Client:    c,
		RequestID: requestID(r),
	})
	return nil
}

// handleGetClient handles GET /api/clients/{id}.
func (a *Adapter) handleGetClient(w http.ResponseWriter, r *http.Request) error {
	c, err := a.clients.Get(r.Context(), auth.AdvisorID(r.Context()), r.PathValue("id"))
	if err != nil {
		return notFound(err, clientNotFound)
	}

	writeJSON(w, http.StatusOK, api.ClientResponse{
		Success:   true,
		Client:    c,
		RequestID: requestID(r),
	})
	return nil
}

// handleUpdateClient handles PUT /api/clients/{id}.
func (a *Adapter) handleUpdateClient(w http.ResponseWriter, r *http.Request) error {
	var req api.UpdateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	c, err := a.clients.Update(r.Context(), auth.AdvisorID(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		return notFound(err, clientNotFound)
	}

	writeJSON(w, http.StatusOK, api.ClientResponse{
		Success:   true,
		Client:    c,
		RequestID: requestID(r),
	})
	return nil
}

// handleDeleteClient handles DELETE /api/clients/{id}.
func (a *Adapter) handleDeleteClient(w http.ResponseWriter, r *http.Request) error {
	if err := a.clients.Delete(r.Context(), auth.AdvisorID(r.Context()), r.PathValue("id")); err != nil {
		return notFound(err, clientNotFound)
	}

	writeJSON(w, http.StatusOK, api.MessageResponse{
		Success:   true,
		Message:   "Client deleted",
		RequestID: requestID(r),
	})
	return nil
}
