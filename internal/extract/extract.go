// Package extract 从自由文本中启发式提取类型相关的结构化字段。
//
// 提取结果仅作展示便利，绝不作为医学事实的依据。
package extract

import (
	"regexp"
	"strconv"

	"privemr-record-service/internal/models"
)

// Extractor 按记录类型提取结构化数据；无可提取内容时返回 nil
type Extractor interface {
	Extract(text string) *models.StructuredData
}

// 各记录类型对应的提取器（提取策略可独立演进）
var extractors = map[string]Extractor{
	models.RecordTypeLab: labExtractor{},
}

// ForType 返回指定记录类型的提取器；无对应提取器时返回 nil
func ForType(recordType string) Extractor {
	return extractors[recordType]
}

// Extract 便捷入口：按类型提取，类型无提取器或无匹配时返回 nil
func Extract(text, recordType string) *models.StructuredData {
	e := ForType(recordType)
	if e == nil {
		return nil
	}
	return e.Extract(text)
}

// labExtractor 扫描 "<名称>: <数值> <单位?>" 形式的化验值
type labExtractor struct{}

var labPattern = regexp.MustCompile(`(\w+):\s*(\d+\.?\d*)\s*([\w/%]+)?`)

func (labExtractor) Extract(text string) *models.StructuredData {
	matches := labPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	results := make([]models.LabResult, 0, len(matches))
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		results = append(results, models.LabResult{
			TestName:       m[1],
			Value:          value,
			Unit:           m[3],
			ReferenceRange: "Normal",
			Status:         "normal",
		})
	}

	if len(results) == 0 {
		return nil
	}
	return &models.StructuredData{LabResults: results}
}
