package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sft-go/internal/config"
	"sft-go/internal/dto"
	"sft-go/internal/finetune"
	"sft-go/internal/models"
	"sft-go/internal/repository"
	"sft-go/pkg/trainer_client"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// FineTuneManager 微调任务管理器
// 每个任务一个后台goroutine，负责提交训练、轮询进度、训后检查和模型上传
type FineTuneManager struct {
	taskRepo       *repository.TrainingTaskRepository
	mergeService   *MergeService
	trainerService *TrainerService
	redisClient    *redis.Client
	cfg            *config.Config
	logger         *logrus.Logger

	// 内存中的任务状态
	tasks     map[string]*TaskContext
	tasksLock sync.RWMutex

	// 无Redis时按基础模型退化为进程内限流
	localLimiters   map[string]*trainer_client.ConcurrencyLimiter
	localLimitersMu sync.Mutex
}

// TaskContext 任务上下文
type TaskContext struct {
	TaskID        string
	UserID        uint
	MergeRunID    uint
	Params        map[string]interface{}
	TrainerConfig *models.TrainerConfig
	APIServices   []string
	APIKey        string
	Tuning        finetune.TuningConfig
	HubToken      string
	CheckPrompt   string
	StartTime     time.Time
	CancelFunc    context.CancelFunc

	// Status/Finished由任务goroutine写、API goroutine读，必须加锁
	stateMu  sync.Mutex
	Status   string
	Finished bool

	// 用于广播的事件历史和订阅者管理
	EventHistory     []*dto.ProgressEvent
	EventHistoryLock sync.RWMutex
	subscribers      map[chan *dto.ProgressEvent]bool
	subscribersLock  sync.RWMutex
}

// AddEvent 添加事件到历史并广播给所有订阅者
func (tc *TaskContext) AddEvent(event *dto.ProgressEvent) {
	tc.EventHistoryLock.Lock()
	tc.EventHistory = append(tc.EventHistory, event)
	tc.EventHistoryLock.Unlock()

	tc.subscribersLock.RLock()
	for ch := range tc.subscribers {
		select {
		case ch <- event:
		default:
			// 通道满了，跳过（避免阻塞）
		}
	}
	tc.subscribersLock.RUnlock()
}

// Subscribe 订阅事件（返回一个接收事件的通道）
func (tc *TaskContext) Subscribe() chan *dto.ProgressEvent {
	ch := make(chan *dto.ProgressEvent, 200)

	tc.subscribersLock.Lock()
	if tc.subscribers == nil {
		tc.subscribers = make(map[chan *dto.ProgressEvent]bool)
	}
	tc.subscribers[ch] = true
	tc.subscribersLock.Unlock()

	return ch
}

// Unsubscribe 取消订阅
// 不关闭通道，SSE handler通过context.Done()检测断开连接
func (tc *TaskContext) Unsubscribe(ch chan *dto.ProgressEvent) {
	tc.subscribersLock.Lock()
	delete(tc.subscribers, ch)
	tc.subscribersLock.Unlock()
}

// markFinished 记录任务终态
func (tc *TaskContext) markFinished(status string) {
	tc.stateMu.Lock()
	tc.Status = status
	tc.Finished = true
	tc.stateMu.Unlock()
}

// State 返回任务当前状态和是否已结束
func (tc *TaskContext) State() (string, bool) {
	tc.stateMu.Lock()
	defer tc.stateMu.Unlock()
	return tc.Status, tc.Finished
}

// GetEventHistory 获取事件历史的副本
func (tc *TaskContext) GetEventHistory() []*dto.ProgressEvent {
	tc.EventHistoryLock.RLock()
	defer tc.EventHistoryLock.RUnlock()

	history := make([]*dto.ProgressEvent, len(tc.EventHistory))
	copy(history, tc.EventHistory)
	return history
}

// NewFineTuneManager 创建微调任务管理器
func NewFineTuneManager(
	taskRepo *repository.TrainingTaskRepository,
	mergeService *MergeService,
	trainerService *TrainerService,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *logrus.Logger,
) *FineTuneManager {
	return &FineTuneManager{
		taskRepo:       taskRepo,
		mergeService:   mergeService,
		trainerService: trainerService,
		redisClient:    redisClient,
		cfg:            cfg,
		logger:         logger,
		tasks:          make(map[string]*TaskContext),
		localLimiters:  make(map[string]*trainer_client.ConcurrencyLimiter),
	}
}

// localLimiter 获取基础模型对应的进程内限流器
func (tm *FineTuneManager) localLimiter(baseModel string, maxConcurrent int) *trainer_client.ConcurrencyLimiter {
	tm.localLimitersMu.Lock()
	defer tm.localLimitersMu.Unlock()
	limiter, ok := tm.localLimiters[baseModel]
	if !ok {
		if maxConcurrent <= 0 {
			maxConcurrent = 1
		}
		limiter = trainer_client.NewConcurrencyLimiter(maxConcurrent)
		tm.localLimiters[baseModel] = limiter
	}
	return limiter
}

// StartFineTune 启动微调任务
func (tm *FineTuneManager) StartFineTune(userID uint, req *dto.StartFineTuneRequest) (*dto.StartFineTuneResponse, error) {
	log := tm.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"merge_run_id": req.MergeRunID,
	})
	log.Info("请求启动微调任务")

	// 验证合并运行存在且有保留样本
	run, err := tm.mergeService.GetRun(req.MergeRunID, userID)
	if err != nil {
		return nil, err
	}
	if run.Retained == 0 {
		return nil, fmt.Errorf("合并运行 %d 没有可用的保留样本", req.MergeRunID)
	}

	// 解析训练服务配置
	var trainerConfig *models.TrainerConfig
	var apiServices []string
	var apiKey string
	baseModel := tm.cfg.Trainer.DefaultBaseModel

	if req.TrainerID != nil {
		cfg, err := tm.trainerService.GetConfigByIDAndActive(*req.TrainerID)
		if err != nil {
			return nil, fmt.Errorf("获取训练服务配置失败: %w", err)
		}
		trainerConfig = cfg
		apiServices = []string{cfg.APIURL}
		apiKey = cfg.APIKey
		baseModel = cfg.BaseModel
	} else if len(req.Services) > 0 {
		apiServices = req.Services
		apiKey = tm.cfg.Trainer.DefaultAPIKey
	} else {
		apiServices = tm.cfg.GetTrainerServices()
		apiKey = tm.cfg.Trainer.DefaultAPIKey
	}

	if len(apiServices) == 0 {
		return nil, fmt.Errorf("未找到可用的训练服务")
	}
	if req.BaseModel != "" {
		baseModel = req.BaseModel
	}

	// 构建微调配置
	tuning := finetune.DefaultTuningConfig()
	tuning.BaseModel = baseModel
	tuning.HubRepo = req.HubRepo
	applyOverrides(&tuning, req.Overrides)
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("微调配置无效: %w", err)
	}

	taskID := tm.generateUniqueTaskID(fmt.Sprintf("ft_run%d", req.MergeRunID))

	params := map[string]interface{}{
		"merge_run_id": req.MergeRunID,
		"user_id":      userID,
		"base_model":   tuning.BaseModel,
		"api_services": apiServices,
		"max_steps":    tuning.Train.MaxSteps,
		"hub_repo":     tuning.HubRepo,
	}

	task := &models.TrainingTask{
		TaskID:     taskID,
		UserID:     userID,
		MergeRunID: req.MergeRunID,
		Status:     "running",
		Params:     params,
		StartedAt:  time.Now(),
	}

	if err := tm.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("创建任务记录失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	taskCtx := &TaskContext{
		TaskID:        taskID,
		UserID:        userID,
		MergeRunID:    req.MergeRunID,
		Status:        "running",
		Params:        params,
		TrainerConfig: trainerConfig,
		APIServices:   apiServices,
		APIKey:        apiKey,
		Tuning:        tuning,
		HubToken:      req.HubToken,
		CheckPrompt:   req.CheckPrompt,
		StartTime:     time.Now(),
		CancelFunc:    cancel,
	}

	tm.tasksLock.Lock()
	tm.tasks[taskID] = taskCtx
	tm.tasksLock.Unlock()

	log.WithField("task_id", taskID).Info("任务上下文创建成功，启动后台执行")

	go tm.runTask(ctx, taskCtx)

	return &dto.StartFineTuneResponse{
		Success: true,
		TaskID:  taskID,
		Status:  "running",
	}, nil
}

// runTask 执行微调任务
func (tm *FineTuneManager) runTask(ctx context.Context, taskCtx *TaskContext) {
	log := tm.logger.WithField("task_id", taskCtx.TaskID)
	log.Info("任务开始执行")

	taskCtx.AddEvent(&dto.ProgressEvent{
		Type:    "output",
		Line:    "任务开始执行...",
		Message: "任务开始执行",
	})

	// 基础模型限流
	maxConcurrent := tm.cfg.Redis.DefaultMaxConcurrency
	if taskCtx.TrainerConfig != nil && taskCtx.TrainerConfig.MaxConcurrent > 0 {
		maxConcurrent = taskCtx.TrainerConfig.MaxConcurrent
	}
	if tm.redisClient != nil {
		limiter := tm.trainerService.GetLimiter(taskCtx.Tuning.BaseModel, maxConcurrent)
		if err := limiter.Acquire(ctx, taskCtx.Tuning.BaseModel); err != nil {
			tm.failTask(taskCtx, fmt.Sprintf("获取并发槽位失败: %v", err))
			return
		}
		defer limiter.Release(context.Background(), taskCtx.Tuning.BaseModel)
	} else {
		limiter := tm.localLimiter(taskCtx.Tuning.BaseModel, maxConcurrent)
		if err := limiter.Acquire(ctx); err != nil {
			tm.failTask(taskCtx, fmt.Sprintf("获取并发槽位失败: %v", err))
			return
		}
		defer limiter.Release()
	}

	// 读取保留样本并格式化为训练文本
	samples, err := tm.mergeService.GetRetainedSamples(taskCtx.MergeRunID, taskCtx.UserID)
	if err != nil {
		tm.failTask(taskCtx, fmt.Sprintf("读取保留样本失败: %v", err))
		return
	}

	formatter := finetune.NewFormatter(taskCtx.Tuning.EOSToken)
	records := formatter.FormatDataset(samples)
	log.WithField("records", len(records)).Info("训练文本格式化完成")

	timeout := tm.cfg.Trainer.GetTimeout()
	if taskCtx.TrainerConfig != nil && taskCtx.TrainerConfig.Timeout > 0 {
		timeout = time.Duration(taskCtx.TrainerConfig.Timeout) * time.Second
	}
	client := trainer_client.NewTrainerClient(taskCtx.APIServices[0], taskCtx.APIKey, timeout)

	// 提交训练任务
	jobID, err := client.StartJob(ctx, taskCtx.Tuning, records)
	if err != nil {
		tm.failTask(taskCtx, fmt.Sprintf("提交训练任务失败: %v", err))
		return
	}
	if err := tm.taskRepo.UpdateJobID(taskCtx.TaskID, jobID); err != nil {
		log.Warnf("记录训练服务任务ID失败: %v", err)
	}

	taskCtx.AddEvent(&dto.ProgressEvent{
		Type:    "output",
		Line:    fmt.Sprintf("训练任务已提交: %s", jobID),
		Message: "训练任务已提交",
	})

	// 轮询训练进度
	finalStatus, err := client.WaitJob(ctx, jobID, tm.cfg.Trainer.GetPollInterval(), func(status *dto.JobStatus) {
		tm.recordProgress(ctx, taskCtx, status)
	})
	if err != nil {
		if ctx.Err() != nil {
			tm.stopTaskState(taskCtx)
			return
		}
		tm.failTask(taskCtx, fmt.Sprintf("训练失败: %v", err))
		return
	}

	result := models.JSONMap{
		"job_id":      jobID,
		"total_steps": finalStatus.TotalSteps,
		"final_loss":  finalStatus.Loss,
	}

	// 训后推理检查：用第一条样本的指令生成一次，确认适配器可用
	checkInstruction := taskCtx.CheckPrompt
	checkInput := ""
	if checkInstruction == "" && len(samples) > 0 {
		checkInstruction = samples[0].Instruction()
		checkInput = samples[0].Input()
	}
	if checkInstruction != "" {
		prompt := formatter.InferencePrompt(checkInstruction, checkInput)
		completion, err := client.Completion(ctx, taskCtx.Tuning.BaseModel, prompt, nil)
		if err != nil {
			log.Warnf("训后推理检查失败: %v", err)
			taskCtx.AddEvent(&dto.ProgressEvent{
				Type:    "output",
				Line:    fmt.Sprintf("推理检查失败: %v", err),
				Message: "推理检查失败",
			})
		} else if len(completion.Choices) > 0 {
			text := completion.Choices[0].Text
			if text == "" {
				text = completion.Choices[0].Message.Content
			}
			result["check_output"] = text
			taskCtx.AddEvent(&dto.ProgressEvent{
				Type:    "output",
				Line:    "推理检查通过",
				Message: "推理检查通过",
			})
		}
	}

	// 保存适配器，按需上传远程仓库
	if err := client.SaveModel(ctx, jobID, taskCtx.Tuning.OutputDir); err != nil {
		tm.failTask(taskCtx, fmt.Sprintf("保存模型失败: %v", err))
		return
	}
	result["output_dir"] = taskCtx.Tuning.OutputDir

	if taskCtx.Tuning.HubRepo != "" && taskCtx.HubToken != "" {
		if err := client.PushToHub(ctx, jobID, taskCtx.Tuning.HubRepo, taskCtx.HubToken); err != nil {
			tm.failTask(taskCtx, fmt.Sprintf("上传模型失败: %v", err))
			return
		}
		result["hub_repo"] = taskCtx.Tuning.HubRepo
		taskCtx.AddEvent(&dto.ProgressEvent{
			Type:    "output",
			Line:    fmt.Sprintf("模型已上传: %s", taskCtx.Tuning.HubRepo),
			Message: "模型已上传",
		})
	}

	if err := tm.taskRepo.UpdateResult(taskCtx.TaskID, result); err != nil {
		log.Warnf("写入任务结果失败: %v", err)
	}
	if err := tm.taskRepo.UpdateStatusWithTime(taskCtx.TaskID, "finished"); err != nil {
		log.Warnf("更新任务状态失败: %v", err)
	}

	taskCtx.markFinished("finished")
	taskCtx.AddEvent(&dto.ProgressEvent{
		Type:    "finished",
		Message: "任务完成",
	})
	log.Info("任务完成")
}

// recordProgress 记录一次训练进度(事件广播 + Redis)
func (tm *FineTuneManager) recordProgress(ctx context.Context, taskCtx *TaskContext, status *dto.JobStatus) {
	percent := 0.0
	if status.TotalSteps > 0 {
		percent = float64(status.Step) / float64(status.TotalSteps) * 100
	}

	step := status.Step
	total := status.TotalSteps
	taskCtx.AddEvent(&dto.ProgressEvent{
		Type:    "step",
		Step:    &step,
		Total:   &total,
		Loss:    status.Loss,
		Percent: percent,
	})

	if tm.redisClient != nil {
		redisKey := fmt.Sprintf("train_progress:%s", taskCtx.TaskID)
		pipe := tm.redisClient.Pipeline()
		pipe.HSet(ctx, redisKey, "step", status.Step)
		pipe.HSet(ctx, redisKey, "total_steps", status.TotalSteps)
		pipe.HSet(ctx, redisKey, "loss", status.Loss)
		pipe.Expire(ctx, redisKey, 24*time.Hour)
		if _, err := pipe.Exec(ctx); err != nil {
			tm.logger.Warnf("写入Redis进度失败: %v", err)
		}
	}
}

// failTask 任务失败收尾
func (tm *FineTuneManager) failTask(taskCtx *TaskContext, message string) {
	tm.logger.WithField("task_id", taskCtx.TaskID).Error(message)

	taskCtx.markFinished("error")
	taskCtx.AddEvent(&dto.ProgressEvent{
		Type:    "error",
		Line:    message,
		Message: message,
	})

	if err := tm.taskRepo.UpdateError(taskCtx.TaskID, message); err != nil {
		tm.logger.Warnf("更新任务错误状态失败: %v", err)
	}
}

// stopTaskState 任务被停止后的收尾
func (tm *FineTuneManager) stopTaskState(taskCtx *TaskContext) {
	taskCtx.markFinished("stopped")
	taskCtx.AddEvent(&dto.ProgressEvent{
		Type:    "finished",
		Message: "任务已停止",
	})

	if err := tm.taskRepo.UpdateStatusWithTime(taskCtx.TaskID, "stopped"); err != nil {
		tm.logger.Warnf("更新任务状态失败: %v", err)
	}
}

// StopTask 停止任务
func (tm *FineTuneManager) StopTask(taskID string, userID uint) error {
	tm.tasksLock.RLock()
	taskCtx, ok := tm.tasks[taskID]
	tm.tasksLock.RUnlock()

	if !ok {
		return fmt.Errorf("任务不存在")
	}
	if taskCtx.UserID != userID {
		return fmt.Errorf("无权操作该任务")
	}
	if _, finished := taskCtx.State(); finished {
		return fmt.Errorf("任务已结束")
	}

	taskCtx.CancelFunc()
	return nil
}

// GetTaskContext 获取内存中的任务上下文
func (tm *FineTuneManager) GetTaskContext(taskID string) (*TaskContext, bool) {
	tm.tasksLock.RLock()
	defer tm.tasksLock.RUnlock()
	taskCtx, ok := tm.tasks[taskID]
	return taskCtx, ok
}

// GetProgress 订阅任务进度，返回事件通道、历史事件和取消订阅函数
// 只有任务所属用户才能订阅
func (tm *FineTuneManager) GetProgress(taskID string, userID uint) (chan *dto.ProgressEvent, []*dto.ProgressEvent, func(), error) {
	tm.tasksLock.RLock()
	taskCtx, ok := tm.tasks[taskID]
	tm.tasksLock.RUnlock()

	if !ok {
		return nil, nil, nil, fmt.Errorf("任务不存在或已结束")
	}
	if taskCtx.UserID != userID {
		return nil, nil, nil, fmt.Errorf("无权访问该任务")
	}

	ch := taskCtx.Subscribe()
	history := taskCtx.GetEventHistory()
	unsubscribe := func() { taskCtx.Unsubscribe(ch) }
	return ch, history, unsubscribe, nil
}

// GetTaskStatus 获取任务状态
func (tm *FineTuneManager) GetTaskStatus(taskID string, userID uint) (*dto.TaskStatusResponse, error) {
	task, err := tm.taskRepo.GetByTaskID(taskID)
	if err != nil {
		return nil, fmt.Errorf("任务不存在")
	}
	if task.UserID != userID {
		return nil, fmt.Errorf("无权访问该任务")
	}

	finished := task.Status != "running"
	return &dto.TaskStatusResponse{
		TaskID:   task.TaskID,
		Status:   task.Status,
		Finished: finished,
		Message:  task.ErrorMessage,
	}, nil
}

// GetUserTasks 获取用户的任务列表
func (tm *FineTuneManager) GetUserTasks(userID uint, page, perPage int) (*dto.TaskListResponse, error) {
	offset := (page - 1) * perPage
	tasks, _, err := tm.taskRepo.ListByUserID(userID, offset, perPage)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.TaskInfo, len(tasks))
	for i, task := range tasks {
		runTime := 0.0
		if task.FinishedAt != nil {
			runTime = task.FinishedAt.Sub(task.StartedAt).Seconds()
		} else {
			runTime = time.Since(task.StartedAt).Seconds()
		}
		infos[i] = dto.TaskInfo{
			TaskID:   task.TaskID,
			Status:   task.Status,
			Params:   task.Params,
			RunTime:  runTime,
			Finished: task.Status != "running",
		}
	}

	return &dto.TaskListResponse{
		Success: true,
		Tasks:   infos,
	}, nil
}

// GetActiveTask 获取用户的运行中任务
func (tm *FineTuneManager) GetActiveTask(userID uint) (*dto.TaskStatusResponse, error) {
	task, err := tm.taskRepo.GetActiveTaskByUserID(userID)
	if err != nil {
		return nil, err
	}

	return &dto.TaskStatusResponse{
		TaskID:   task.TaskID,
		Status:   task.Status,
		Finished: false,
	}, nil
}

// DeleteTask 删除任务(仅限已结束的任务)
func (tm *FineTuneManager) DeleteTask(taskID string, userID uint) error {
	task, err := tm.taskRepo.GetByTaskID(taskID)
	if err != nil {
		return fmt.Errorf("任务不存在")
	}
	if task.UserID != userID {
		return fmt.Errorf("无权操作该任务")
	}
	if task.Status == "running" {
		return fmt.Errorf("运行中的任务不能删除")
	}

	tm.tasksLock.Lock()
	delete(tm.tasks, taskID)
	tm.tasksLock.Unlock()

	return tm.taskRepo.DeleteByTaskID(taskID)
}

// generateUniqueTaskID 生成唯一任务ID
func (tm *FineTuneManager) generateUniqueTaskID(base string) string {
	taskID := fmt.Sprintf("%s_%s", base, time.Now().Format("20060102_150405"))
	for i := 1; ; i++ {
		exists, err := tm.taskRepo.ExistsByTaskID(taskID)
		if err != nil || !exists {
			return taskID
		}
		taskID = fmt.Sprintf("%s_%s_%d", base, time.Now().Format("20060102_150405"), i)
	}
}

// applyOverrides 将请求中的超参覆盖应用到微调配置
func applyOverrides(cfg *finetune.TuningConfig, overrides map[string]interface{}) {
	if len(overrides) == 0 {
		return
	}

	if v, ok := toInt(overrides["max_seq_length"]); ok {
		cfg.MaxSeqLength = v
	}
	if v, ok := toInt(overrides["lora_r"]); ok {
		cfg.LoRA.R = v
	}
	if v, ok := toInt(overrides["lora_alpha"]); ok {
		cfg.LoRA.Alpha = v
	}
	if v, ok := toFloat(overrides["lora_dropout"]); ok {
		cfg.LoRA.Dropout = v
	}
	if v, ok := toInt(overrides["batch_size"]); ok {
		cfg.Train.BatchSize = v
	}
	if v, ok := toInt(overrides["gradient_accumulation"]); ok {
		cfg.Train.GradAccum = v
	}
	if v, ok := toInt(overrides["warmup_steps"]); ok {
		cfg.Train.WarmupSteps = v
	}
	if v, ok := toInt(overrides["max_steps"]); ok {
		cfg.Train.MaxSteps = v
	}
	if v, ok := toFloat(overrides["learning_rate"]); ok {
		cfg.Train.LearningRate = v
	}
	if v, ok := toInt(overrides["seed"]); ok {
		cfg.Train.Seed = v
	}
	if v, ok := overrides["output_dir"].(string); ok && v != "" {
		cfg.OutputDir = v
	}
}

// toInt JSON数字统一按float64解码，这里统一转换
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
