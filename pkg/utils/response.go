package utils

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"erro": message})
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// ValidationError sends a 400 with one message per invalid field
func ValidationError(w http.ResponseWriter, details []string) {
	JSON(w, http.StatusBadRequest, map[string]interface{}{
		"erro":     "Dados inválidos",
		"detalhes": details,
	})
}

// Message sends {"mensagem": msg} with the given status
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"mensagem": msg})
}
