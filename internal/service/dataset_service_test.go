package service

import (
	"mime/multipart"
	"testing"

	"sft-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDatasetService(t *testing.T) *DatasetService {
	t.Helper()
	db := newTestDB(t)
	return NewDatasetService(repository.NewDatasetFileRepository(db))
}

func TestUploadFileNormalizesJSONL(t *testing.T) {
	svc := newDatasetService(t)

	content := []byte("{\"instruction\": \"a\", \"input\": \"\", \"response\": \"r1\"}\n{\"instruction\": \"b\", \"input\": \"\", \"response\": \"r2\"}\n")
	header := &multipart.FileHeader{Filename: "samples.jsonl"}

	file, err := svc.UploadFile(1, header, content)
	require.NoError(t, err)

	// 入库前统一归一化为JSON数组
	assert.Equal(t, "application/json", file.ContentType)
	assert.Equal(t, 2, file.SampleCount)

	parsed, err := svc.GetFileContent(file.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.Total)
}

func TestUploadFileConvertsCSV(t *testing.T) {
	svc := newDatasetService(t)

	content := []byte("instruction,input,response\n分析,数据,结果\n")
	header := &multipart.FileHeader{Filename: "samples.csv"}

	file, err := svc.UploadFile(1, header, content)
	require.NoError(t, err)
	assert.Equal(t, 1, file.SampleCount)
}

func TestUploadFileRejectsMalformedContent(t *testing.T) {
	svc := newDatasetService(t)

	header := &multipart.FileHeader{Filename: "bad.json"}
	_, err := svc.UploadFile(1, header, []byte("[{broken"))
	assert.Error(t, err)
}

func TestUpdateFileContent(t *testing.T) {
	svc := newDatasetService(t)

	content := []byte(`[{"instruction": "a", "input": "", "response": "r1"}]`)
	header := &multipart.FileHeader{Filename: "samples.json"}
	file, err := svc.UploadFile(1, header, content)
	require.NoError(t, err)

	err = svc.UpdateFileContent(file.ID, 1, 0, map[string]interface{}{
		"instruction": "a",
		"input":       "",
		"response":    "updated",
	})
	require.NoError(t, err)

	parsed, err := svc.GetFileContent(file.ID, 1)
	require.NoError(t, err)
	require.Len(t, parsed.Content, 1)
	assert.Equal(t, "updated", parsed.Content[0]["response"])

	// 越界索引报错
	assert.Error(t, svc.UpdateFileContent(file.ID, 1, 5, map[string]interface{}{}))
}

func TestDeleteFileIsolatesUsers(t *testing.T) {
	svc := newDatasetService(t)

	header := &multipart.FileHeader{Filename: "samples.json"}
	file, err := svc.UploadFile(1, header, []byte(`[{"instruction":"a","input":"","response":"r"}]`))
	require.NoError(t, err)

	// 其他用户不能删除
	assert.Error(t, svc.DeleteFile(file.ID, 2))
	assert.NoError(t, svc.DeleteFile(file.ID, 1))
}
