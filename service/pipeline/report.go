/*
 * @module service/pipeline/report
 * @description 管道运行报告构建器，将聚合结果导出为对外的分组JSON结构
 * @architecture 数据转换层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow PipelineResult -> 分组统计 -> 可序列化报告
 * @rules 报告只读不回写结果；overall 汇总项不计入字段级校验统计
 * @dependencies 无外部依赖
 * @refs pipeline.go, service/models/pipeline.go
 */

package pipeline

import (
	"commerce-pipeline/service/models"
)

// BuildReport 将管道运行结果导出为分组报告结构
func BuildReport(result *models.PipelineResult) map[string]interface{} {
	if result == nil {
		return nil
	}

	report := map[string]interface{}{
		"pipeline_info": map[string]interface{}{
			"entity_type":             result.EntityType,
			"status":                  result.Status,
			"started_at":              result.StartedAt,
			"completed_at":            result.CompletedAt,
			"processing_time_seconds": result.ProcessingSeconds(),
		},
		"processing_summary": buildProcessingSummary(result),
		"detailed_results":   buildDetailedResults(result),
		"errors":             result.Errors,
		"warnings":           result.Warnings,
	}

	// 质量监控被跳过时整组省略
	if result.QualityReport != nil {
		report["quality_report"] = result.QualityReport
	}
	return report
}

func buildProcessingSummary(result *models.PipelineResult) map[string]interface{} {
	summary := map[string]interface{}{
		"total_records":     result.TotalRecords,
		"processed_records": result.ProcessedRecords,
		"failed_records":    result.FailedRecords,
		"success_rate":      result.SuccessRate(),
		"versions_created":  result.VersionsCreated,
		"duplicate_summary": buildDuplicateSummary(result),
		"issues": map[string]interface{}{
			"errors":   len(result.Errors),
			"warnings": len(result.Warnings),
		},
	}

	if result.QualityReport != nil {
		summary["quality_summary"] = map[string]interface{}{
			"overall_score": result.QualityReport.OverallScore,
			"quality_level": result.QualityReport.QualityLevel,
			"metrics_count": len(result.QualityReport.Metrics),
			"issues_count":  len(result.QualityReport.Issues),
		}
	}
	return summary
}

// buildDuplicateSummary 重复组统计：每组 n 条记录贡献 n-1 条重复
func buildDuplicateSummary(result *models.PipelineResult) map[string]interface{} {
	duplicateRecords := 0
	for _, group := range result.DuplicateGroups {
		duplicateRecords += len(group.Records) - 1
	}

	ratio := 0.0
	if result.ProcessedRecords > 0 {
		ratio = float64(duplicateRecords) / float64(result.ProcessedRecords)
	}

	return map[string]interface{}{
		"groups_found":      len(result.DuplicateGroups),
		"duplicate_records": duplicateRecords,
		"duplicate_ratio":   ratio,
	}
}

func buildDetailedResults(result *models.PipelineResult) map[string]interface{} {
	return map[string]interface{}{
		"cleaning_results":         result.CleaningResults,
		"validation_summary":       buildValidationSummary(result.ValidationFindings),
		"duplicate_groups_summary": buildGroupSummaries(result.DuplicateGroups),
		"versions_created":         result.VersionsCreated,
	}
}

// buildValidationSummary 校验发现的总量与字段级分布，overall 汇总项不参与字段统计
func buildValidationSummary(allFindings [][]models.ValidationFinding) map[string]interface{} {
	totalErrors, totalWarnings, totalInfos := 0, 0, 0
	recordsWithError := 0
	byField := make(map[string]int)

	for _, findings := range allFindings {
		errors, warnings, infos := models.CountByLevel(findings)
		totalErrors += errors
		totalWarnings += warnings
		totalInfos += infos
		if models.HasError(findings) {
			recordsWithError++
		}
		for _, finding := range findings {
			if finding.Field == models.OverallField {
				continue
			}
			byField[finding.Field]++
		}
	}

	return map[string]interface{}{
		"records_validated":  len(allFindings),
		"records_with_error": recordsWithError,
		"error_count":        totalErrors,
		"warning_count":      totalWarnings,
		"info_count":         totalInfos,
		"findings_by_field":  byField,
	}
}

// buildGroupSummaries 重复组摘要，不携带完整记录内容
func buildGroupSummaries(groups []models.DuplicateGroup) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(groups))
	for _, group := range groups {
		summaries = append(summaries, map[string]interface{}{
			"group_id":         group.GroupID,
			"record_count":     len(group.Records),
			"record_indexes":   group.RecordIndexes,
			"similarity_score": group.SimilarityScore,
			"duplicate_fields": group.DuplicateFields,
		})
	}
	return summaries
}
