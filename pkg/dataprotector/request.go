package dataprotector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/grexie/n8n-protector/pkg/api/interop"
	"github.com/grexie/n8n-protector/pkg/signer"
)

const (
	HeaderWalletAddress   = "X-Wallet-Address"
	HeaderWalletTimestamp = "X-Wallet-Timestamp"
	HeaderWalletSignature = "X-Wallet-Signature"
	HeaderSMSURL          = "X-SMS-URL"
)

// SignedMessage is the message a wallet signs for a gateway request.
func SignedMessage(body []byte, timestamp string) []byte {
	return append(append([]byte{}, body...), timestamp...)
}

func (c *client) newRequest(ctx context.Context, method string, path string, query url.Values, o any) (*http.Request, error) {
	var body []byte
	if o != nil {
		if b, err := json.Marshal(o); err != nil {
			return nil, err
		} else {
			body = b
		}
	}

	u := c.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	if sig, err := c.signer.SignMessage(SignedMessage(body, timestamp)); err != nil {
		return nil, err
	} else if req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body)); err != nil {
		return nil, err
	} else {
		req.Header.Set(HeaderWalletAddress, c.signer.Address().Hex())
		req.Header.Set(HeaderWalletTimestamp, timestamp)
		req.Header.Set(HeaderWalletSignature, signer.EncodeSignature(sig))
		if c.smsURL != "" {
			req.Header.Set(HeaderSMSURL, c.smsURL)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

func call[T any](ctx context.Context, c *client, method string, path string, query url.Values, o any) (T, error) {
	var zero T
	var r interop.APIResponse[T]

	req, err := c.newRequest(ctx, method, path, query, o)
	if err != nil {
		return zero, err
	}

	log.Debugf("dataprotector %s %s", method, path)

	res, err := c.http.Do(req)
	if err != nil {
		return zero, fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("dataprotector %s %s: %v", method, path, err))
	}
	defer res.Body.Close()

	if b, err := io.ReadAll(res.Body); err != nil {
		return zero, err
	} else if err := json.Unmarshal(b, &r); err != nil {
		if res.StatusCode >= 400 {
			return zero, fiber.NewError(res.StatusCode, res.Status)
		}
		return zero, fmt.Errorf("dataprotector %s %s: invalid response: %w", method, path, err)
	} else if err := r.Err(res.StatusCode); err != nil {
		return zero, err
	} else {
		return r.Data, nil
	}
}
