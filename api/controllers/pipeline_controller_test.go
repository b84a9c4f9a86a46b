/*
 * @module api/controllers/pipeline_controller_test
 * @description 管道控制器单元测试
 * @architecture 测试层
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-pipeline/service/models"
	"commerce-pipeline/service/pipeline"
	"commerce-pipeline/testutil"
)

// stubRecordSaver 记录持久化桩
type stubRecordSaver struct {
	savedEntityType string
	savedCount      int
	reportSaved     bool
	saveErr         error
}

func (s *stubRecordSaver) SaveSurvivors(entityType string, records []map[string]interface{}) (int, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	s.savedEntityType = entityType
	s.savedCount = len(records)
	return len(records), nil
}

func (s *stubRecordSaver) SaveQualityReport(report *models.QualityReport) error {
	s.reportSaved = report != nil
	return nil
}

// stubRunObserver 指标观测桩
type stubRunObserver struct {
	observed int
}

func (s *stubRunObserver) ObserveRun(result *models.PipelineResult) {
	s.observed++
}

func newTestPipelineController(saver RecordSaver, observer RunObserver) *PipelineController {
	return NewPipelineController(pipeline.NewPipeline(), saver, observer)
}

func TestPipelineProcess_Success(t *testing.T) {
	saver := &stubRecordSaver{}
	observer := &stubRunObserver{}
	controller := newTestPipelineController(saver, observer)

	helper := testutil.NewHTTPTestHelper()
	req, err := helper.CreateJSONRequest(http.MethodPost, "/pipeline/process", ProcessRequest{
		EntityType: "product",
		Records:    []map[string]interface{}{testutil.RawProduct("p-1")},
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()

	controller.Process(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Status)
	assert.Equal(t, "管道执行完成", response.Msg)

	report, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, report, "pipeline_info")
	assert.Contains(t, report, "processing_summary")

	// 未开启落库时不写仓储，指标始终观测
	assert.Equal(t, 0, saver.savedCount)
	assert.Equal(t, 1, observer.observed)
}

func TestPipelineProcess_PersistEnabled(t *testing.T) {
	saver := &stubRecordSaver{}
	controller := newTestPipelineController(saver, &stubRunObserver{})

	helper := testutil.NewHTTPTestHelper()
	req, err := helper.CreateJSONRequest(http.MethodPost, "/pipeline/process", ProcessRequest{
		EntityType: "product",
		Records: []map[string]interface{}{
			testutil.RawProduct("p-1"),
			testutil.RawProduct("p-2", testutil.WithField("title", "全棉四件套床上用品")),
		},
		Persist: true,
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()

	controller.Process(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "product", saver.savedEntityType)
	assert.Equal(t, 2, saver.savedCount)
	assert.True(t, saver.reportSaved)
}

func TestPipelineProcess_PersistFailureWarns(t *testing.T) {
	saver := &stubRecordSaver{saveErr: errors.New("连接中断")}
	controller := newTestPipelineController(saver, &stubRunObserver{})

	helper := testutil.NewHTTPTestHelper()
	req, err := helper.CreateJSONRequest(http.MethodPost, "/pipeline/process", ProcessRequest{
		EntityType: "product",
		Records:    []map[string]interface{}{testutil.RawProduct("p-1")},
		Persist:    true,
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()

	controller.Process(w, req)

	// 落库失败不影响HTTP成功，警告进入报告
	assert.Equal(t, http.StatusOK, w.Code)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Status)

	report := response.Data.(map[string]interface{})
	warnings, ok := report["warnings"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, warnings, "处理结果落库失败")
}

func TestPipelineProcess_InvalidBody(t *testing.T) {
	controller := newTestPipelineController(&stubRecordSaver{}, &stubRunObserver{})

	req := httptest.NewRequest(http.MethodPost, "/pipeline/process", strings.NewReader("{invalid"))
	w := httptest.NewRecorder()

	controller.Process(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
	assert.Contains(t, response.Msg, "请求参数解析失败")
}

func TestPipelineProcess_EmptyRecords(t *testing.T) {
	controller := newTestPipelineController(&stubRecordSaver{}, &stubRunObserver{})

	helper := testutil.NewHTTPTestHelper()
	req, err := helper.CreateJSONRequest(http.MethodPost, "/pipeline/process", ProcessRequest{
		EntityType: "product",
		Records:    []map[string]interface{}{},
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()

	controller.Process(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
	assert.Equal(t, "记录列表不能为空", response.Msg)
}

func TestPipelineProcess_InvalidEntityType(t *testing.T) {
	controller := newTestPipelineController(&stubRecordSaver{}, &stubRunObserver{})

	helper := testutil.NewHTTPTestHelper()
	req, err := helper.CreateJSONRequest(http.MethodPost, "/pipeline/process", ProcessRequest{
		EntityType: "warehouse",
		Records:    []map[string]interface{}{testutil.RawProduct("p-1")},
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()

	controller.Process(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
	assert.Contains(t, response.Msg, "管道执行失败")
}
