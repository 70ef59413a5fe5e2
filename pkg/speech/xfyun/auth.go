package xfyun

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"
)

// buildWsURL signs an iFlytek websocket endpoint. The signature covers
// the host, an RFC1123 GMT date, and the request line, HMAC-SHA256 with
// the API secret, per the open platform auth scheme.
func buildWsURL(host, path, apiKey, apiSecret string, now time.Time) string {
	date := now.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")

	signatureOrigin := "host: " + host + "\n" +
		"date: " + date + "\n" +
		"GET " + path + " HTTP/1.1"

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(signatureOrigin))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authorizationOrigin := fmt.Sprintf(
		`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		apiKey, signature,
	)
	authorization := base64.StdEncoding.EncodeToString([]byte(authorizationOrigin))

	query := url.Values{}
	query.Set("authorization", authorization)
	query.Set("date", date)
	query.Set("host", host)

	return "wss://" + host + path + "?" + query.Encode()
}
