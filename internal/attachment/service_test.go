package attachment_test

import (
	"bytes"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/civicworks/revenue-tracker/internal/attachment"
)

type mockAttachmentRepository struct {
	attachments map[int64]*attachment.Attachment
	createError error
	nextID      int64
}

func newMockAttachmentRepository() *mockAttachmentRepository {
	return &mockAttachmentRepository{
		attachments: make(map[int64]*attachment.Attachment),
		nextID:      1,
	}
}

func (m *mockAttachmentRepository) Create(a *attachment.Attachment) error {
	if m.createError != nil {
		return m.createError
	}
	a.ID = m.nextID
	m.nextID++
	m.attachments[a.ID] = a
	return nil
}

func (m *mockAttachmentRepository) GetByID(id int64) (*attachment.Attachment, error) {
	a, ok := m.attachments[id]
	if !ok {
		return nil, attachment.ErrAttachmentNotFound
	}
	return a, nil
}

func (m *mockAttachmentRepository) ListByOwner(ownerType string, ownerID int64) ([]*attachment.Attachment, error) {
	var out []*attachment.Attachment
	for _, a := range m.attachments {
		if a.OwnerType == ownerType && a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAttachmentRepository) Update(a *attachment.Attachment) error {
	m.attachments[a.ID] = a
	return nil
}

// %PDF-1.4 magic so content sniffing resolves application/pdf
var pdfPayload = append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{0x20}, 64)...)

var _ = Describe("AttachmentService", func() {
	var (
		service  *attachment.Service
		mockRepo *mockAttachmentRepository
	)

	BeforeEach(func() {
		mockRepo = newMockAttachmentRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = attachment.NewService(mockRepo, GinkgoT().TempDir(), attachment.MaxFileSize, logger)
	})

	Describe("Upload", func() {
		It("stores an allowed file on disk and records it", func() {
			a, err := service.Upload(attachment.OwnerExpenditure, 7, "receipt.pdf", int64(len(pdfPayload)), bytes.NewReader(pdfPayload), 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ContentType).To(Equal("application/pdf"))
			Expect(a.Size).To(Equal(int64(len(pdfPayload))))
			Expect(a.Verified).To(BeFalse())

			stored, err := os.ReadFile(a.StoragePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal(pdfPayload))
		})

		It("sniffs the content type instead of trusting the filename", func() {
			exePayload := append([]byte("MZ"), bytes.Repeat([]byte{0x00}, 64)...)
			_, err := service.Upload(attachment.OwnerExpenditure, 7, "totally-a-picture.png", int64(len(exePayload)), bytes.NewReader(exePayload), 42)
			Expect(err).To(MatchError(attachment.ErrUnsupportedFileType))
		})

		It("refuses files over the size cap", func() {
			_, err := service.Upload(attachment.OwnerExpenditure, 7, "huge.pdf", attachment.MaxFileSize+1, bytes.NewReader(pdfPayload), 42)
			Expect(err).To(MatchError(attachment.ErrFileTooLarge))
		})
	})

	Describe("Verify", func() {
		It("marks the attachment verified with reviewer notes", func() {
			a, err := service.Upload(attachment.OwnerRetirement, 3, "evidence.pdf", int64(len(pdfPayload)), bytes.NewReader(pdfPayload), 42)
			Expect(err).NotTo(HaveOccurred())

			verified, err := service.Verify(a.ID, 77, "matches the voucher")
			Expect(err).NotTo(HaveOccurred())
			Expect(verified.Verified).To(BeTrue())
			Expect(*verified.VerifiedBy).To(Equal(int64(77)))
			Expect(verified.VerificationNotes).To(Equal("matches the voucher"))
		})

		It("fails for an unknown attachment", func() {
			_, err := service.Verify(999, 77, "")
			Expect(err).To(MatchError(attachment.ErrAttachmentNotFound))
		})
	})
})
