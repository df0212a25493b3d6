package assembler

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"privemr-record-service/internal/emrcrypto"
	"privemr-record-service/internal/models"
)

var idPattern = regexp.MustCompile(`^EMR-[A-Z0-9]+-[A-Z0-9]{6}$`)

// fixedClockAssembler 固定时钟 + 固定随机种子，保证测试可确定
func fixedClockAssembler(at time.Time) *Assembler {
	a := NewAssembler(zap.NewNop())
	a.now = func() time.Time { return at }
	a.rnd = rand.New(rand.NewSource(1))
	return a
}

func labForm() *models.SubmissionForm {
	return &models.SubmissionForm{
		PatientEmail: "patient@example.com",
		PatientName:  "Asha Verma",
		Title:        "CBC Panel",
		Description:  "Routine blood work",
		Type:         models.RecordTypeLab,
		SubType:      "Blood Test",
		Priority:     models.PriorityMedium,
		Tags:         []string{"routine", "annual"},
		TextData:     "Hemoglobin: 14.2 g/dL",
		ProviderName: "Dr. Rao",
		HospitalName: "City Hospital",
	}
}

func TestGenerateID_Format(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	for i := 0; i < 100; i++ {
		require.Regexp(t, idPattern, a.GenerateID())
	}
}

func TestGenerateID_PairwiseDistinct(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	// 每次调用时钟前进 1ms，模拟快速连续调用
	var ms int64
	a.now = func() time.Time { ms++; return time.UnixMilli(1787392800000 + ms) }
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := a.GenerateID()
		require.False(t, seen[id], "duplicate id %s at iteration %d", id, i)
		seen[id] = true
	}
}

func TestAssemble_NoContentFails(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	form := labForm()
	form.TextData = ""
	form.File = nil

	_, err := a.Assemble(form)
	require.ErrorIs(t, err, ErrNoContent)
}

func TestAssemble_InvalidFileFails(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	form := labForm()
	form.File = &models.FileUpload{
		Name:     "movie.mp4",
		MimeType: "video/mp4",
		Size:     1024,
	}

	_, err := a.Assemble(form)
	require.ErrorIs(t, err, ErrInvalidFile)
}

func TestAssemble_TextOnlyRecord(t *testing.T) {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	a := fixedClockAssembler(at)

	record, err := a.Assemble(labForm())
	require.NoError(t, err)

	require.Regexp(t, idPattern, record.ID)
	require.Equal(t, RecordVersion, record.Version)
	require.Equal(t, record.ID, record.Metadata.ID)
	require.Equal(t, "CBC Panel", record.Metadata.Title)
	require.Equal(t, models.StatusActive, record.Metadata.Status)

	// 文本载荷被编码，可解码还原
	require.NotEqual(t, "Hemoglobin: 14.2 g/dL", record.Content.TextData)
	require.Equal(t, "Hemoglobin: 14.2 g/dL", emrcrypto.Decode(record.Content.TextData))
	require.Nil(t, record.Content.FileData)

	// lab 类型提取结构化数据
	require.NotNil(t, record.Content.StructuredData)
	require.Len(t, record.Content.StructuredData.LabResults, 1)
	require.Equal(t, "Hemoglobin", record.Content.StructuredData.LabResults[0].TestName)

	// 时间戳来自注入的时钟
	require.Equal(t, "2026-08-01T10:00:00Z", record.Timestamps.CreatedAt)
	require.Equal(t, record.Timestamps.CreatedAt, record.Timestamps.UpdatedAt)

	// 访问日志与审计轨迹各播种一条 created
	require.Len(t, record.Access.AccessLog, 1)
	require.Equal(t, "created", record.Access.AccessLog[0].Action)
	require.Empty(t, record.Access.SharedWith)
	require.Len(t, record.Compliance.AuditTrail, 1)
	require.Equal(t, "created", record.Compliance.AuditTrail[0].Action)
	require.Equal(t, record.Timestamps.CreatedAt, record.Compliance.AuditTrail[0].Timestamp)
}

func TestAssemble_WithFile(t *testing.T) {
	a := fixedClockAssembler(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	form := labForm()
	form.TextData = ""
	data := []byte("%PDF-1.4 fake report")
	form.File = &models.FileUpload{
		Name:     "report.pdf",
		MimeType: "application/pdf",
		Size:     int64(len(data)),
		Data:     data,
	}

	record, err := a.Assemble(form)
	require.NoError(t, err)

	require.NotNil(t, record.Content.FileData)
	require.Equal(t, "report.pdf", record.Content.FileData.OriginalName)
	require.Equal(t, "application/pdf", record.Content.FileData.MimeType)
	require.NotEmpty(t, record.Content.FileData.Base64Data)
	require.Len(t, record.Content.FileData.Checksum, 64)
	require.Empty(t, record.Content.TextData)
	require.Nil(t, record.Content.StructuredData)
}

func TestAssemble_SecurityBlock(t *testing.T) {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	a := fixedClockAssembler(at)

	record, err := a.Assemble(labForm())
	require.NoError(t, err)

	sec := record.Security
	require.Regexp(t, regexp.MustCompile(`^0x[0-9a-f]{16}\.\.\.$`), sec.Hash)
	require.Len(t, sec.ContentDigest, 64)
	require.Equal(t, "0x"+sec.ContentDigest[:16]+"...", sec.Hash)
	require.NotEmpty(t, sec.Signature)
	require.Equal(t, "AES-256-GCM", sec.EncryptionMethod)
	require.True(t, sec.IsEncrypted)
	require.True(t, sec.IsSigned)
	require.Equal(t, models.VerificationVerified, sec.VerificationStatus)
}

func TestCanonicalContent_MatchesAssemblyDigest(t *testing.T) {
	a := fixedClockAssembler(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	record, err := a.Assemble(labForm())
	require.NoError(t, err)

	// 事后重建的规范化内容必须复现组装时的完整摘要
	canonical, err := CanonicalContent(record)
	require.NoError(t, err)
	require.Equal(t, record.Security.ContentDigest, emrcrypto.Digest(string(canonical)))
}

func TestCanonicalContent_DetectsTampering(t *testing.T) {
	a := fixedClockAssembler(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	record, err := a.Assemble(labForm())
	require.NoError(t, err)

	record.Metadata.Title = "Altered Title"
	canonical, err := CanonicalContent(record)
	require.NoError(t, err)
	require.NotEqual(t, record.Security.ContentDigest, emrcrypto.Digest(string(canonical)))
}
