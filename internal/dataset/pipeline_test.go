package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSampleFile(t *testing.T, dir, name string, samples []Sample) string {
	t.Helper()
	data, err := json.Marshal(samples)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestMerge(t *testing.T) {
	inputDir := t.TempDir()
	outDir := t.TempDir()

	// 文件名排序决定拼接顺序，b先于c、后于a
	writeSampleFile(t, inputDir, "b.json", []Sample{
		sampleWithResponse(3, `{"pe": 1}`),
		sampleWithResponse(4, `{"pe": 0}`),
	})
	writeSampleFile(t, inputDir, "a.json", []Sample{
		sampleWithResponse(1, `{"pe": 2}`),
		sampleWithResponse(2, "没有特征输出"),
	})
	writeSampleFile(t, inputDir, "c.json", []Sample{
		sampleWithResponse(5, `{"pe": "3"}`),
	})

	outputPath := filepath.Join(outDir, "merged_data.json")
	removedPath := filepath.Join(outDir, "removed_data.json")

	result, err := Merge(MergeOptions{
		InputDir:    inputDir,
		OutputPath:  outputPath,
		RemovedPath: removedPath,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 3, result.Retained)
	assert.Equal(t, 2, result.Removed)
	assert.Equal(t, outputPath, result.OutputPath)

	retained, err := ReadJSON(outputPath)
	require.NoError(t, err)
	require.Len(t, retained, 3)

	// 输出保持 a.json -> b.json -> c.json 的读取顺序
	ids := make([]float64, 0, len(retained))
	for _, s := range retained {
		ids = append(ids, s["id"].(float64))
	}
	assert.Equal(t, []float64{1, 3, 5}, ids)

	removed, err := ReadJSON(removedPath)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
}

func TestMergeEmptyDir(t *testing.T) {
	inputDir := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "merged_data.json")

	result, err := Merge(MergeOptions{
		InputDir:   inputDir,
		OutputPath: outputPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)

	// 零输入文件也要产出空数组
	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestMergeIgnoresNonJSONFiles(t *testing.T) {
	inputDir := t.TempDir()
	writeSampleFile(t, inputDir, "a.json", []Sample{sampleWithResponse(1, `{"pe": 1}`)})
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "notes.txt"), []byte("忽略"), 0644))

	result, err := Merge(MergeOptions{
		InputDir:   inputDir,
		OutputPath: filepath.Join(t.TempDir(), "out.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
}

func TestMergeMalformedFileIsFatal(t *testing.T) {
	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "bad.json"), []byte("{not an array"), 0644))

	_, err := Merge(MergeOptions{
		InputDir:   inputDir,
		OutputPath: filepath.Join(t.TempDir(), "out.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestMergeExplicitSources(t *testing.T) {
	dir := t.TempDir()
	p1 := writeSampleFile(t, dir, "z.json", []Sample{sampleWithResponse(1, `{"pe": 1}`)})
	p2 := writeSampleFile(t, dir, "a.json", []Sample{sampleWithResponse(2, `{"pe": 2}`)})

	outputPath := filepath.Join(t.TempDir(), "out.json")
	// 显式列表按给定顺序读取，不重新排序
	result, err := Merge(MergeOptions{
		Sources:    []string{p1, p2},
		OutputPath: outputPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)

	retained, err := ReadJSON(outputPath)
	require.NoError(t, err)
	require.Len(t, retained, 2)
	assert.Equal(t, 1.0, retained[0]["id"])
	assert.Equal(t, 2.0, retained[1]["id"])
}
