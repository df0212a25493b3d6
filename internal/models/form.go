package models

// SubmissionForm 表单提交载荷（由上层界面填充后交给处理管道）
type SubmissionForm struct {
	// 患者信息
	PatientEmail  string `json:"patientEmail"`
	AadhaarNumber string `json:"aadhaarNumber,omitempty"`
	AbhaID        string `json:"abhaId,omitempty"`
	PatientName   string `json:"patientName,omitempty"`

	// 记录基础信息
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	SubType     string   `json:"subType,omitempty"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`

	// 内容（TextData 与 File 至少一项）
	TextData string      `json:"textData,omitempty"`
	File     *FileUpload `json:"file,omitempty"`

	// 机构信息（化验室门户通常自动填充）
	ProviderName  string `json:"providerName"`
	HospitalName  string `json:"hospitalName"`
	LicenseNumber string `json:"licenseNumber,omitempty"`

	// 附加元数据
	ScheduledFor string `json:"scheduledFor,omitempty"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
}

// FileUpload 待摄取的上传文件（内存中的原始字节）
type FileUpload struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Data     []byte `json:"-"`
}

// RecordPatch 记录的部分更新（按块浅合并：非 nil 的块整体替换）
type RecordPatch struct {
	Version    *string           `json:"version,omitempty"`
	Patient    *PatientInfo      `json:"patient,omitempty"`
	Provider   *MedicalProvider  `json:"provider,omitempty"`
	Metadata   *RecordMetadata   `json:"metadata,omitempty"`
	Content    *RecordContent    `json:"content,omitempty"`
	Security   *RecordSecurity   `json:"security,omitempty"`
	Timestamps *RecordTimestamps `json:"timestamps,omitempty"`
	Access     *RecordAccess     `json:"access,omitempty"`
	Compliance *RecordCompliance `json:"compliance,omitempty"`
}
