package tokovoucher

import (
	// Go Internal Packages
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"
)

type Client struct {
	baseURL    string
	memberCode string
	secret     string
	http       *http.Client
}

func NewClient(baseURL, memberCode, secret string) *Client {
	return &Client{
		baseURL:    baseURL,
		memberCode: memberCode,
		secret:     secret,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

type orderRequest struct {
	MemberCode  string `json:"member_code"`
	Signature   string `json:"signature"`
	ProductCode string `json:"produk"`
	Destination string `json:"tujuan"`
	RefID       string `json:"ref_id"`
}

type statusRequest struct {
	MemberCode string `json:"member_code"`
	Signature  string `json:"signature"`
	RefID      string `json:"ref_id"`
}

type apiResponse struct {
	Status    json.Number `json:"status"`
	ErrorMsg  string      `json:"error_msg"`
	Message   string      `json:"message"`
	SN        string      `json:"sn"`
	TrxID     string      `json:"trx_id"`
	Price     int         `json:"price"`
	StatusTrx string      `json:"status_trx"`
}

// sign computes md5(memberCode:secret:refID).
func (c *Client) sign(refID string) string {
	sum := md5.Sum([]byte(c.memberCode + ":" + c.secret + ":" + refID))
	return hex.EncodeToString(sum[:])
}

// Purchase submits a new order keyed by refID.
func (c *Client) Purchase(ctx context.Context, productCode, destination, refID string) (models.ProviderResult, error) {
	body := orderRequest{
		MemberCode:  c.memberCode,
		Signature:   c.sign(refID),
		ProductCode: productCode,
		Destination: destination,
		RefID:       refID,
	}
	return c.post(ctx, "/v1/transaksi", body)
}

// QueryStatus re-checks an order by its refID. An API-level failure is
// reported as an upstream error, distinct from a legitimate failed
// order status.
func (c *Client) QueryStatus(ctx context.Context, refID string) (models.ProviderResult, error) {
	body := statusRequest{
		MemberCode: c.memberCode,
		Signature:  c.sign(refID),
		RefID:      refID,
	}
	return c.post(ctx, "/v1/transaksi/status", body)
}

func (c *Client) post(ctx context.Context, path string, reqBody any) (models.ProviderResult, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("tokovoucher", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("tokovoucher", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("tokovoucher", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ProviderResult{}, errors.UpstreamErr("tokovoucher",
			fmt.Errorf("unexpected http status %d", resp.StatusCode))
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.ProviderResult{}, errors.UpstreamErr("tokovoucher", err)
	}

	// status=0 means the API call itself failed, not that the order
	// failed.
	if body.Status.String() == "0" {
		msg := body.ErrorMsg
		if msg == "" {
			msg = body.Message
		}
		return models.ProviderResult{}, errors.UpstreamErr("tokovoucher", fmt.Errorf("api error: %s", msg))
	}

	status := normalizeStatus(body.StatusTrx)
	if status == "" {
		return models.ProviderResult{}, errors.UpstreamErr("tokovoucher",
			fmt.Errorf("unrecognized order status %q", body.StatusTrx))
	}

	return models.ProviderResult{
		Status:       status,
		Cost:         body.Price,
		SerialNumber: body.SN,
		Message:      body.Message,
		ProviderTxID: body.TrxID,
	}, nil
}

func normalizeStatus(s string) string {
	switch s {
	case "sukses", "Sukses", "success":
		return models.StatusSukses
	case "pending", "Pending", "proses":
		return models.StatusPending
	case "gagal", "Gagal", "failed":
		return models.StatusGagal
	}
	return ""
}
