package models

// EMRRecord 完整的电子病历记录（规范的持久化实体）
// JSON 字段名与前端演示数据保持兼容（camelCase），
// 便于导入旧版 localStorage 导出的数据
type EMRRecord struct {
	// 核心标识
	ID      string `json:"id"`
	Version string `json:"version"` // 记录结构版本，如 "1.0"

	// 患者信息
	Patient PatientInfo `json:"patient"`

	// 医疗机构/医生信息
	Provider MedicalProvider `json:"provider"`

	// 记录元数据
	Metadata RecordMetadata `json:"metadata"`

	// 内容（文本/文件/结构化数据）
	Content RecordContent `json:"content"`

	// 安全信息（摘要、签名等）
	Security RecordSecurity `json:"security"`

	// 时间戳
	Timestamps RecordTimestamps `json:"timestamps"`

	// 访问控制
	Access RecordAccess `json:"access"`

	// 合规信息
	Compliance RecordCompliance `json:"compliance"`
}

// PatientInfo 患者信息
type PatientInfo struct {
	Email         string `json:"email"`
	AadhaarNumber string `json:"aadhaarNumber,omitempty"` // 国家身份证号
	AbhaID        string `json:"abhaId,omitempty"`        // 健康账户 ID
	Name          string `json:"name,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	Gender        string `json:"gender,omitempty"` // "male"/"female"/"other"
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Address       string `json:"address,omitempty"`
}

// MedicalProvider 医疗机构/医生信息
type MedicalProvider struct {
	Name           string `json:"name"`
	LicenseNumber  string `json:"licenseNumber,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	HospitalName   string `json:"hospitalName"`
	HospitalID     string `json:"hospitalId,omitempty"`
}

// 记录类型枚举
const (
	RecordTypeLab          = "lab"
	RecordTypeImaging      = "imaging"
	RecordTypePrescription = "prescription"
	RecordTypeDiagnostic   = "diagnostic"
	RecordTypeVaccination  = "vaccination"
	RecordTypeConsultation = "consultation"
	RecordTypeSurgery      = "surgery"
	RecordTypeOther        = "other"
)

// 优先级枚举
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// 生命周期状态枚举
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusDeleted  = "deleted"
)

// RecordMetadata 记录元数据
type RecordMetadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`              // lab/imaging/prescription/diagnostic/vaccination/consultation/surgery/other
	SubType     string   `json:"subType,omitempty"` // 如 "Blood Test"、"X-Ray"
	Priority    string   `json:"priority"`          // low/medium/high/critical
	Status      string   `json:"status"`            // draft/active/archived/deleted
	Tags        []string `json:"tags"`
}

// RecordContent 记录内容
// 创建时必须至少包含 TextData 或 FileData 之一
type RecordContent struct {
	TextData       string          `json:"textData,omitempty"` // 编码后的文本内容
	FileData       *FileData       `json:"fileData,omitempty"`
	StructuredData *StructuredData `json:"structuredData,omitempty"`
}

// FileData 上传文件的持久化形式
type FileData struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	Base64Data   string `json:"base64Data"`
	Checksum     string `json:"checksum"` // 原始字节的 SHA-256（区别于编码后内容）
}

// StructuredData 启发式提取的结构化数据（仅用于展示，不作为医学依据）
type StructuredData struct {
	LabResults []LabResult `json:"labResults,omitempty"`
}

// LabResult 化验结果条目
type LabResult struct {
	TestName       string  `json:"testName"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	ReferenceRange string  `json:"referenceRange,omitempty"`
	Status         string  `json:"status"` // normal/abnormal/critical
}

// 验证状态枚举
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationFailed   = "failed"
)

// RecordSecurity 安全信息
// 注意：Signature 是占位值（不含密钥对，不可验证），
// "加密" 为可逆文本编码，均不提供真实的机密性/真实性保证
type RecordSecurity struct {
	Hash               string `json:"hash"`          // 展示用的截断摘要（"0x" 前缀）
	ContentDigest      string `json:"contentDigest"` // 完整 SHA-256 十六进制，用于后续验证
	Signature          string `json:"signature"`
	EncryptionMethod   string `json:"encryptionMethod"`
	KeyID              string `json:"keyId"`
	IsEncrypted        bool   `json:"isEncrypted"`
	IsSigned           bool   `json:"isSigned"`
	VerificationStatus string `json:"verificationStatus"` // pending/verified/failed
}

// RecordTimestamps 时间戳（统一使用 RFC3339 字符串，与前端数据兼容）
type RecordTimestamps struct {
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
	LastAccessedAt string `json:"lastAccessedAt,omitempty"`
	ExpiresAt      string `json:"expiresAt,omitempty"`
	ScheduledFor   string `json:"scheduledFor,omitempty"`
}

// RecordAccess 访问控制
// AccessLog 和 SharedWith 均为追加式（只增不删）
type RecordAccess struct {
	CreatedBy  MedicalProvider `json:"createdBy"`
	AccessLog  []AccessEntry   `json:"accessLog"`
	SharedWith []ShareGrant    `json:"sharedWith"`
}

// AccessEntry 访问日志条目
type AccessEntry struct {
	AccessedBy string `json:"accessedBy"`
	AccessedAt string `json:"accessedAt"`
	Action     string `json:"action"` // created/view/edit/share/download/print
}

// ShareGrant 共享授权条目
type ShareGrant struct {
	GrantID     string   `json:"grantId,omitempty"`
	Email       string   `json:"email"`
	Role        string   `json:"role"` // doctor/lab/patient/insurance/other
	Permissions []string `json:"permissions"`
	SharedAt    string   `json:"sharedAt"`
	ExpiresAt   string   `json:"expiresAt,omitempty"`
}

// RecordCompliance 合规信息
type RecordCompliance struct {
	HIPAACompliant            bool         `json:"hipaaCompliant"`
	GDPRCompliant             bool         `json:"gdprCompliant"`
	LocalRegulationsCompliant bool         `json:"localRegulationsCompliant"`
	RetentionPeriod           int          `json:"retentionPeriod"` // 保留年限
	ConsentGiven              bool         `json:"consentGiven"`
	ConsentDate               string       `json:"consentDate"`
	AuditTrail                []AuditEvent `json:"auditTrail"` // 追加式审计轨迹
}

// AuditEvent 审计事件
type AuditEvent struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"userId"`
	Details   string `json:"details,omitempty"`
}

// EMRSummary 列表展示用的记录摘要投影
// 永远从完整记录重新计算，不单独存储
type EMRSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Type         string   `json:"type"`
	SubType      string   `json:"subType,omitempty"`
	DateCreated  string   `json:"dateCreated"`
	Provider     string   `json:"provider"`
	Hospital     string   `json:"hospital"`
	Verified     bool     `json:"verified"` // 恒等于 security.verificationStatus == "verified"
	Priority     string   `json:"priority"`
	FileSize     string   `json:"fileSize,omitempty"` // 格式化后的文件大小
	LastAccessed string   `json:"lastAccessed,omitempty"`
	Tags         []string `json:"tags"`
}
