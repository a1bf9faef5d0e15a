package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zaguanai/zaguan-go/pkg/dotdir"
	"github.com/zaguanai/zaguan-go/pkg/llm"
)

var _ = Describe("dotdir.Manager session", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-session-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when no session was saved", func() {
		session, err := m.LoadSession(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(session).To(BeNil())
	})

	It("saves and loads a session", func() {
		saved := &dotdir.Session{
			Model: "openai/gpt-4o-mini",
			Messages: []llm.Message{
				llm.NewTextMessage(llm.RoleSystem, "Be brief."),
				llm.NewTextMessage(llm.RoleUser, "hello"),
				llm.NewTextMessage(llm.RoleAssistant, "hi there"),
			},
		}
		Expect(m.SaveSession(saved, tmpDir)).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, "session.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

		loaded, err := m.LoadSession(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Model).To(Equal("openai/gpt-4o-mini"))
		Expect(loaded.Messages).To(HaveLen(3))
		Expect(loaded.Messages[2].Role).To(Equal(llm.RoleAssistant))
		Expect(loaded.Messages[2].GetText()).To(Equal("hi there"))
	})

	It("rejects a nil session", func() {
		Expect(m.SaveSession(nil, tmpDir)).To(MatchError(ContainSubstring("nil session")))
	})

	It("reports a corrupt session file", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte("{"), 0o600)).To(Succeed())

		_, err := m.LoadSession(tmpDir)
		Expect(err).To(MatchError(ContainSubstring("parsing session")))
	})

	It("clears the session idempotently", func() {
		Expect(m.SaveSession(&dotdir.Session{Model: "m"}, tmpDir)).To(Succeed())

		Expect(m.ClearSession(tmpDir)).To(Succeed())
		Expect(filepath.Join(tmpDir, "session.json")).NotTo(BeAnExistingFile())
		Expect(m.ClearSession(tmpDir)).To(Succeed())
	})
})
