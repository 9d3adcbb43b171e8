package api

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	encoded := base64.URLEncoding.EncodeToString(b)
	return encoded[:length]
}

// sessionID reads the {id} route variable. The route pattern only admits
// digits, so the error case is an overflow.
func sessionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
