package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

func ParseRequestBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dest)
	if err != nil {
		slog.Error("error parsing request body", "error", err)
		http.Error(w, fmt.Sprintf("error parsing request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func WriteJsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
	}
}

func WriteSuccess(w http.ResponseWriter) {
	WriteJsonResponse(w, struct{}{})
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// MissingFields returns the names of required fields that are empty.
func MissingFields(fields map[string]string) []string {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// MarshalList encodes a list to the JSON string form the record store keeps
// list-valued columns in.
func MarshalList(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		// A []string cannot fail to marshal.
		panic(err)
	}
	return string(data)
}

// UnmarshalList is the inverse of MarshalList; malformed input yields an
// empty list rather than an error, matching how the dashboard treats stored
// data it cannot parse.
func UnmarshalList(encoded string) []string {
	if encoded == "" {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		slog.Error("error parsing stored list value", "error", err)
		return []string{}
	}
	return values
}
