package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"sft-go/internal/config"
	"sft-go/internal/dto"
	"sft-go/internal/finetune"
	"sft-go/internal/models"
	"sft-go/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFineTuneManager(t *testing.T) (*FineTuneManager, *repository.TrainingTaskRepository) {
	t.Helper()
	db := newTestDB(t)
	taskRepo := repository.NewTrainingTaskRepository(db)
	fileRepo := repository.NewDatasetFileRepository(db)
	runRepo := repository.NewMergeRunRepository(db)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	mergeService := NewMergeService(fileRepo, runRepo, log)
	trainerService := NewTrainerService(repository.NewTrainerConfigRepository(db), nil)
	cfg := &config.Config{}

	return NewFineTuneManager(taskRepo, mergeService, trainerService, nil, cfg, log), taskRepo
}

func TestApplyOverrides(t *testing.T) {
	cfg := finetune.DefaultTuningConfig()
	applyOverrides(&cfg, map[string]interface{}{
		"max_steps":     120.0, // JSON数字解码为float64
		"learning_rate": 1e-4,
		"lora_r":        32.0,
		"batch_size":    4.0,
		"output_dir":    "./lora_out",
	})

	assert.Equal(t, 120, cfg.Train.MaxSteps)
	assert.Equal(t, 1e-4, cfg.Train.LearningRate)
	assert.Equal(t, 32, cfg.LoRA.R)
	assert.Equal(t, 4, cfg.Train.BatchSize)
	assert.Equal(t, "./lora_out", cfg.OutputDir)

	// 未覆盖的字段保持默认值
	assert.Equal(t, 16, cfg.LoRA.Alpha)
	assert.Equal(t, 3407, cfg.Train.Seed)
}

func TestApplyOverridesEmpty(t *testing.T) {
	cfg := finetune.DefaultTuningConfig()
	applyOverrides(&cfg, nil)
	assert.Equal(t, finetune.DefaultTuningConfig(), cfg)
}

func TestTaskContextEvents(t *testing.T) {
	taskCtx := &TaskContext{TaskID: "t1"}

	ch := taskCtx.Subscribe()
	taskCtx.AddEvent(&dto.ProgressEvent{Type: "output", Message: "开始"})
	taskCtx.AddEvent(&dto.ProgressEvent{Type: "finished", Message: "完成"})

	history := taskCtx.GetEventHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "output", history[0].Type)
	assert.Equal(t, "finished", history[1].Type)

	// 订阅者收到相同事件
	first := <-ch
	assert.Equal(t, "开始", first.Message)
	second := <-ch
	assert.Equal(t, "完成", second.Message)

	taskCtx.Unsubscribe(ch)
	taskCtx.AddEvent(&dto.ProgressEvent{Type: "output"})
	select {
	case <-ch:
		t.Fatal("取消订阅后不应再收到事件")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestGenerateUniqueTaskID(t *testing.T) {
	tm, taskRepo := newFineTuneManager(t)

	first := tm.generateUniqueTaskID("ft_run1")
	require.NoError(t, taskRepo.Create(&models.TrainingTask{
		TaskID:    first,
		UserID:    1,
		Status:    "finished",
		StartedAt: time.Now(),
	}))

	second := tm.generateUniqueTaskID("ft_run1")
	assert.NotEqual(t, first, second)
}

func TestGetTaskStatusOwnership(t *testing.T) {
	tm, taskRepo := newFineTuneManager(t)

	require.NoError(t, taskRepo.Create(&models.TrainingTask{
		TaskID:    "ft_1",
		UserID:    1,
		Status:    "finished",
		StartedAt: time.Now(),
	}))

	status, err := tm.GetTaskStatus("ft_1", 1)
	require.NoError(t, err)
	assert.True(t, status.Finished)

	_, err = tm.GetTaskStatus("ft_1", 2)
	assert.Error(t, err)
}

func TestGetProgressRequiresOwner(t *testing.T) {
	tm, _ := newFineTuneManager(t)

	taskCtx := &TaskContext{TaskID: "ft_1", UserID: 1, Status: "running"}
	tm.tasksLock.Lock()
	tm.tasks["ft_1"] = taskCtx
	tm.tasksLock.Unlock()

	_, _, _, err := tm.GetProgress("ft_1", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无权")

	ch, history, unsubscribe, err := tm.GetProgress("ft_1", 1)
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Empty(t, history)
	unsubscribe()
}

func TestStopTaskAfterFinish(t *testing.T) {
	tm, _ := newFineTuneManager(t)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	taskCtx := &TaskContext{TaskID: "ft_1", UserID: 1, Status: "running", CancelFunc: cancel}
	tm.tasksLock.Lock()
	tm.tasks["ft_1"] = taskCtx
	tm.tasksLock.Unlock()

	taskCtx.markFinished("finished")

	err := tm.StopTask("ft_1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已结束")

	status, finished := taskCtx.State()
	assert.Equal(t, "finished", status)
	assert.True(t, finished)
}

func TestTaskStateConcurrentAccess(t *testing.T) {
	taskCtx := &TaskContext{TaskID: "ft_1", Status: "running"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			taskCtx.markFinished("stopped")
		}()
		go func() {
			defer wg.Done()
			taskCtx.State()
		}()
	}
	wg.Wait()

	status, finished := taskCtx.State()
	assert.Equal(t, "stopped", status)
	assert.True(t, finished)
}

func TestLocalLimiterFallback(t *testing.T) {
	tm, _ := newFineTuneManager(t)
	require.Nil(t, tm.redisClient)

	limiter := tm.localLimiter("base-model", 1)
	assert.Same(t, limiter, tm.localLimiter("base-model", 1))
	assert.NotSame(t, limiter, tm.localLimiter("other-model", 1))

	require.NoError(t, limiter.Acquire(context.Background()))

	// 槽位占满后获取应阻塞直到context取消
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.Equal(t, context.DeadlineExceeded, err)

	limiter.Release()
	require.NoError(t, limiter.Acquire(context.Background()))
	limiter.Release()
}

func TestDeleteTaskRejectsRunning(t *testing.T) {
	tm, taskRepo := newFineTuneManager(t)

	require.NoError(t, taskRepo.Create(&models.TrainingTask{
		TaskID:    "ft_1",
		UserID:    1,
		Status:    "running",
		StartedAt: time.Now(),
	}))

	assert.Error(t, tm.DeleteTask("ft_1", 1))

	require.NoError(t, taskRepo.UpdateStatusWithTime("ft_1", "finished"))
	assert.NoError(t, tm.DeleteTask("ft_1", 1))
}
