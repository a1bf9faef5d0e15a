package modelscmder_test

import (
	"bytes"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	modelscmder "github.com/zaguanai/zaguan-go/cmd/zaguan/models"
	"github.com/zaguanai/zaguan-go/pkg/gatewaytest"
	"github.com/zaguanai/zaguan-go/pkg/llm"
)

var _ = Describe("Models command", func() {
	var (
		srv *gatewaytest.Server
		out *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		srv, err = gatewaytest.New()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(srv.Close)

		out = &bytes.Buffer{}
		GinkgoT().Setenv("ZAGUAN_API_KEY", "test-key")
	})

	run := func(args ...string) error {
		cmd := modelscmder.NewModelsCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", GinkgoT().TempDir(), "--base-url", srv.URL))
		return cmd.Execute()
	}

	It("prints a table of models", func() {
		srv.Handle(http.MethodGet, "/v1/models", gatewaytest.JSON(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "openai/gpt-4o", "object": "model", "owned_by": "openai"},
				{"id": "anthropic/claude-3-5-sonnet", "object": "model", "owned_by": "anthropic"},
			},
		}))

		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("openai/gpt-4o"))
		Expect(out.String()).To(ContainSubstring("anthropic/claude-3-5-sonnet"))
		Expect(out.String()).To(ContainSubstring("OWNER"))
	})

	It("prints capabilities as JSON", func() {
		srv.Handle(http.MethodGet, "/v1/capabilities", gatewaytest.JSON([]map[string]any{
			{"model_id": "openai/gpt-4o", "supports_vision": true, "supports_tools": true, "supports_reasoning": false},
		}))

		Expect(run("--capabilities", "--json")).To(Succeed())

		var caps []llm.ModelCapabilities
		Expect(json.Unmarshal(out.Bytes(), &caps)).To(Succeed())
		Expect(caps).To(HaveLen(1))
		Expect(caps[0].SupportsVision).To(BeTrue())
	})

	It("returns gateway errors", func() {
		srv.Handle(http.MethodGet, "/v1/models", gatewaytest.Error(http.StatusUnauthorized, "authentication_error", "bad key", nil))

		Expect(run("--max-retries", "0")).To(MatchError(ContainSubstring("bad key")))
	})
})
