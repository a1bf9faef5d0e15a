package apierror_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zaguanai/zaguan-go/pkg/apierror"
)

var _ = Describe("Classify", func() {
	It("classifies rate limits with retry_after", func() {
		err := apierror.Classify(429, []byte(`{"error":{"type":"rate_limit_exceeded","message":"slow down","retry_after":60}}`), "req-1")

		var rle *apierror.RateLimitError
		Expect(errors.As(err, &rle)).To(BeTrue())
		Expect(rle.Message).To(Equal("slow down"))
		Expect(rle.RetryAfter).NotTo(BeNil())
		Expect(*rle.RetryAfter).To(Equal(60))
		Expect(rle.HTTPStatus()).To(Equal(429))
		Expect(rle.RequestID).To(Equal("req-1"))
	})

	It("leaves retry_after nil when absent", func() {
		err := apierror.Classify(429, []byte(`{"error":{"type":"rate_limit_exceeded","message":"slow down"}}`), "")

		var rle *apierror.RateLimitError
		Expect(errors.As(err, &rle)).To(BeTrue())
		Expect(rle.RetryAfter).To(BeNil())
	})

	It("classifies insufficient credits", func() {
		err := apierror.Classify(402, []byte(`{"error":{"type":"insufficient_credits","message":"top up","credits_required":100,"credits_remaining":5}}`), "")

		var ice *apierror.InsufficientCreditsError
		Expect(errors.As(err, &ice)).To(BeTrue())
		Expect(ice.CreditsRequired).To(Equal(100))
		Expect(ice.CreditsRemaining).To(Equal(5))
		Expect(ice.StatusCode).To(Equal(402))
	})

	It("defaults missing credit amounts to zero", func() {
		err := apierror.Classify(402, []byte(`{"error":{"type":"insufficient_credits","message":"top up"}}`), "")

		var ice *apierror.InsufficientCreditsError
		Expect(errors.As(err, &ice)).To(BeTrue())
		Expect(ice.CreditsRequired).To(Equal(0))
		Expect(ice.CreditsRemaining).To(Equal(0))
	})

	It("classifies band access denials", func() {
		err := apierror.Classify(403, []byte(`{"error":{"type":"band_access_denied","message":"upgrade","band":"premium","required_tier":"pro"}}`), "")

		var bad *apierror.BandAccessDeniedError
		Expect(errors.As(err, &bad)).To(BeTrue())
		Expect(*bad.Band).To(Equal("premium"))
		Expect(*bad.RequiredTier).To(Equal("pro"))
		Expect(bad.CurrentTier).To(BeNil())
	})

	It("uses the message of unrecognised error types", func() {
		err := apierror.Classify(400, []byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`), "req-2")

		var apiErr *apierror.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Message).To(Equal("bad model"))
		Expect(apiErr.Type).To(Equal("invalid_request_error"))
		Expect(apiErr.StatusCode).To(Equal(400))
		Expect(apiErr.RequestID).To(Equal("req-2"))
	})

	DescribeTable("falls back to the placeholder message",
		func(body []byte) {
			err := apierror.Classify(500, body, "")

			var apiErr *apierror.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Message).To(Equal(apierror.UnknownErrorMessage))
			Expect(apiErr.StatusCode).To(Equal(500))
		},
		Entry("nil body", []byte(nil)),
		Entry("non-JSON body", []byte("<html>Bad Gateway</html>")),
		Entry("no error member", []byte(`{"detail":"nope"}`)),
		Entry("error without message", []byte(`{"error":{"type":"server_error"}}`)),
		Entry("error that is not an object", []byte(`{"error":"boom"}`)),
	)

	It("makes every variant match ErrZaguan", func() {
		bodies := []string{
			`{}`,
			`{"error":{"type":"rate_limit_exceeded"}}`,
			`{"error":{"type":"insufficient_credits"}}`,
			`{"error":{"type":"band_access_denied"}}`,
		}
		for _, body := range bodies {
			err := apierror.Classify(400, []byte(body), "")
			Expect(errors.Is(err, apierror.ErrZaguan)).To(BeTrue(), body)

			var se apierror.StatusError
			Expect(errors.As(err, &se)).To(BeTrue(), body)
			Expect(se.HTTPStatus()).To(Equal(400))
		}
	})

	It("survives wrapping", func() {
		err := fmt.Errorf("chat: %w", apierror.Classify(503, nil, ""))

		var se apierror.StatusError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.HTTPStatus()).To(Equal(503))
	})
})

var _ = Describe("ClassifyResponse", func() {
	It("reads the body and the request id header", func() {
		resp := &http.Response{
			StatusCode: 429,
			Header:     http.Header{"X-Request-Id": []string{"abc"}},
			Body:       io.NopCloser(strings.NewReader(`{"error":{"type":"rate_limit_exceeded","message":"x","retry_after":"30"}}`)),
		}

		var rle *apierror.RateLimitError
		Expect(errors.As(apierror.ClassifyResponse(resp), &rle)).To(BeTrue())
		Expect(rle.RequestID).To(Equal("abc"))
		Expect(*rle.RetryAfter).To(Equal(30))
	})
})

var _ = Describe("ConnectionError", func() {
	It("reports timeouts", func() {
		err := &apierror.ConnectionError{Op: "POST", URL: "http://x", Err: context.DeadlineExceeded}
		Expect(err.Timeout()).To(BeTrue())
		Expect(errors.Is(err, apierror.ErrZaguan)).To(BeTrue())
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})

	It("is not a timeout for refused connections", func() {
		err := &apierror.ConnectionError{Op: "GET", URL: "http://x", Err: errors.New("connection refused")}
		Expect(err.Timeout()).To(BeFalse())
		Expect(err.Error()).To(ContainSubstring("connection refused"))
	})
})
