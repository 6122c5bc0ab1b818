package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/traxaero/interfaces/pkg/logger"
)

const resendMsgType = "ResendRequest"

// ResendClient posts resend requests back to Humanica.
type ResendClient struct {
	url    string
	client *http.Client
}

func NewResendClient(url string, timeout time.Duration) *ResendClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ResendClient{url: url, client: &http.Client{Timeout: timeout}}
}

// BuildResendRequest renders the message Humanica expects for a resend.
func BuildResendRequest(task *ResendTask) *AttendanceImport {
	return &AttendanceImport{
		Message: &AttendanceMessage{
			Trax: &TraxPayload{
				MsgType: resendMsgType,
				Date:    task.Date,
				Status:  "RR",
				SeqNo:   SeqNo(task.SeqNo),
			},
		},
	}
}

// Send posts the resend request. HTTP 200 and 202 count as delivered.
func (c *ResendClient) Send(ctx context.Context, task *ResendTask) error {
	if c.url == "" {
		return errors.New("attendance resend url is not configured")
	}

	body, err := json.Marshal(BuildResendRequest(task))
	if err != nil {
		return err
	}
	logger.Infof("[Attendance] Sending resend request: %s", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send resend request for seq no %s: %w", task.SeqNo, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	logger.Infof("[Attendance] Resend request response status=%d body=%s", resp.StatusCode, respBody)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("resend request for seq no %s rejected with status %d", task.SeqNo, resp.StatusCode)
	}
	return nil
}
