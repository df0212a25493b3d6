// Package assembler 将表单提交组装为规范的 EMRRecord。
package assembler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"privemr-record-service/internal/emrcrypto"
	"privemr-record-service/internal/extract"
	"privemr-record-service/internal/fileingest"
	"privemr-record-service/internal/models"
)

// 校验错误（在任何异步工作之前同步返回）
var (
	// ErrNoContent 表示提交中既无文本内容也无文件
	ErrNoContent = errors.New("record content requires text data or a file")
	// ErrInvalidFile 表示上传文件未通过校验（超大或类型不支持）
	ErrInvalidFile = errors.New("invalid file upload")
)

// RecordVersion 当前记录结构版本
const RecordVersion = "1.0"

const idSuffixLen = 6

// Assembler 记录组装器
// 时钟与随机源可注入，保证测试下 ID 生成与时间戳可确定
type Assembler struct {
	logger *zap.Logger
	now    func() time.Time
	rnd    *rand.Rand
}

// NewAssembler 创建记录组装器
func NewAssembler(logger *zap.Logger) *Assembler {
	return &Assembler{
		logger: logger,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateID 生成记录 ID：EMR-<base36 毫秒时间戳>-<6 位随机后缀>，全大写
// 随机后缀保证同一会话内快速连续调用几乎不可能冲突
func (a *Assembler) GenerateID() string {
	timestamp := strings.ToUpper(strconv.FormatInt(a.now().UnixMilli(), 36))
	const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, idSuffixLen)
	for i := range suffix {
		suffix[i] = charset[a.rnd.Intn(len(charset))]
	}
	return fmt.Sprintf("EMR-%s-%s", timestamp, suffix)
}

// digestInput 参与摘要/签名计算的规范化内容
// 字段顺序即序列化顺序，保证摘要确定性
type digestInput struct {
	Patient      string `json:"patient"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TextData     string `json:"textData,omitempty"`
	FileChecksum string `json:"fileChecksum,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// CanonicalContent 从已持久化的记录重建规范化摘要输入
// 与组装时参与摘要计算的内容逐字节一致，用于事后完整性验证
func CanonicalContent(record *models.EMRRecord) ([]byte, error) {
	input := digestInput{
		Patient:     record.Patient.Email,
		Title:       record.Metadata.Title,
		Description: record.Metadata.Description,
		TextData:    emrcrypto.Decode(record.Content.TextData),
		Timestamp:   record.Timestamps.CreatedAt,
	}
	if record.Content.FileData != nil {
		input.FileChecksum = record.Content.FileData.Checksum
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal digest input: %w", err)
	}
	return data, nil
}

// Assemble 组装完整的 EMRRecord
// 步骤：内容校验 → 文件摄取 → 摘要/签名 → 文本编码 → 填充各块 → 播种访问日志与审计轨迹
func (a *Assembler) Assemble(form *models.SubmissionForm) (*models.EMRRecord, error) {
	// 同步校验：在任何异步工作之前失败，避免产生部分副作用
	if form.TextData == "" && form.File == nil {
		return nil, ErrNoContent
	}

	now := a.now()
	nowStr := now.UTC().Format(time.RFC3339)
	recordID := a.GenerateID()

	// 摄取文件（如有）
	var fileData *models.FileData
	if form.File != nil {
		if result := fileingest.Validate(form.File); !result.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFile, result.Error)
		}
		fileData = &models.FileData{
			OriginalName: form.File.Name,
			MimeType:     form.File.MimeType,
			Size:         form.File.Size,
			Base64Data:   fileingest.ToBase64(form.File),
			Checksum:     fileingest.Checksum(form.File),
		}
	}

	// 规范化摘要输入
	input := digestInput{
		Patient:     form.PatientEmail,
		Title:       form.Title,
		Description: form.Description,
		TextData:    form.TextData,
		Timestamp:   nowStr,
	}
	if fileData != nil {
		input.FileChecksum = fileData.Checksum
	}
	canonical, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal digest input: %w", err)
	}

	// 编码文本载荷（模拟"加密"）
	var encodedText string
	if form.TextData != "" {
		encodedText = emrcrypto.Encode(form.TextData)
	}

	record := &models.EMRRecord{
		ID:      recordID,
		Version: RecordVersion,

		Patient: models.PatientInfo{
			Email:         form.PatientEmail,
			AadhaarNumber: form.AadhaarNumber,
			AbhaID:        form.AbhaID,
			Name:          form.PatientName,
		},

		Provider: models.MedicalProvider{
			Name:           form.ProviderName,
			HospitalName:   form.HospitalName,
			LicenseNumber:  form.LicenseNumber,
			Specialization: "Laboratory Medicine", // 化验室门户默认值
		},

		Metadata: models.RecordMetadata{
			ID:          recordID,
			Title:       form.Title,
			Description: form.Description,
			Type:        form.Type,
			SubType:     form.SubType,
			Priority:    form.Priority,
			Status:      models.StatusActive,
			Tags:        form.Tags,
		},

		Content: models.RecordContent{
			TextData:       encodedText,
			FileData:       fileData,
			StructuredData: extract.Extract(form.TextData, form.Type),
		},

		Security: models.RecordSecurity{
			Hash:               emrcrypto.DisplayDigest(string(canonical)),
			ContentDigest:      emrcrypto.Digest(string(canonical)),
			Signature:          emrcrypto.Signature(string(canonical), now),
			EncryptionMethod:   "AES-256-GCM",
			KeyID:              fmt.Sprintf("key-%d", now.UnixMilli()),
			IsEncrypted:        true,
			IsSigned:           true,
			VerificationStatus: models.VerificationVerified,
		},

		Timestamps: models.RecordTimestamps{
			CreatedAt:    nowStr,
			UpdatedAt:    nowStr,
			ScheduledFor: form.ScheduledFor,
			ExpiresAt:    form.ExpiresAt,
		},

		Access: models.RecordAccess{
			CreatedBy: models.MedicalProvider{
				Name:          form.ProviderName,
				HospitalName:  form.HospitalName,
				LicenseNumber: form.LicenseNumber,
			},
			AccessLog: []models.AccessEntry{{
				AccessedBy: form.ProviderName,
				AccessedAt: nowStr,
				Action:     "created",
			}},
			SharedWith: []models.ShareGrant{},
		},

		Compliance: models.RecordCompliance{
			HIPAACompliant:            true,
			GDPRCompliant:             true,
			LocalRegulationsCompliant: true,
			RetentionPeriod:           7,
			ConsentGiven:              true,
			ConsentDate:               nowStr,
			AuditTrail: []models.AuditEvent{{
				Action:    "created",
				Timestamp: nowStr,
				UserID:    form.ProviderName,
				Details:   "EMR created via lab portal",
			}},
		},
	}

	a.logger.Debug("Assembled EMR record",
		zap.String("record_id", recordID),
		zap.String("type", form.Type),
		zap.Bool("has_file", fileData != nil),
	)

	return record, nil
}
