package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// RecordHandler serves the records attached to tasks: comments, files,
// status history, time logs and evaluations.
type RecordHandler struct {
	commentService    *services.CommentService
	attachmentService *services.AttachmentService
	historyService    *services.HistoryService
	timeLogService    *services.TimeLogService
	evaluationService *services.EvaluationService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(
	commentService *services.CommentService,
	attachmentService *services.AttachmentService,
	historyService *services.HistoryService,
	timeLogService *services.TimeLogService,
	evaluationService *services.EvaluationService,
) *RecordHandler {
	return &RecordHandler{
		commentService:    commentService,
		attachmentService: attachmentService,
		historyService:    historyService,
		timeLogService:    timeLogService,
		evaluationService: evaluationService,
	}
}

// listRecords handles the shared ?task filter and pagination of record listings.
func listRecords[M, D any](
	c *gin.Context,
	list func(*models.User, *uint64, utils.PaginationParams) ([]M, int64, error),
	convert func(M) D,
) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := queryUint64(c, "task")
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	records, total, err := list(actor, taskID, params)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(c, params, total, dto.Map(records, convert)))
}

// getRecord loads one record by the :id path parameter.
func getRecord[M, D any](c *gin.Context, get func(*models.User, uint64) (*M, error), convert func(M) D) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	record, err := get(actor, id)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusOK, convert(*record))
}

// deleteRecord removes one record by the :id path parameter.
func deleteRecord(c *gin.Context, remove func(*models.User, uint64) error) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := remove(actor, id); err != nil {
		respondRecordError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Comments

func (h *RecordHandler) ListComments(c *gin.Context) {
	listRecords(c, h.commentService.List, dto.ToCommentDTO)
}

func (h *RecordHandler) GetComment(c *gin.Context) {
	getRecord(c, h.commentService.Get, dto.ToCommentDTO)
}

func (h *RecordHandler) CreateComment(c *gin.Context) {
	type CreateCommentRequest struct {
		Task    uint64 `json:"task" binding:"required"`
		Content string `json:"content" binding:"required"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(actor, req.Task, req.Content)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

func (h *RecordHandler) UpdateComment(c *gin.Context) {
	type UpdateCommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Update(actor, id, req.Content)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

func (h *RecordHandler) DeleteComment(c *gin.Context) {
	deleteRecord(c, h.commentService.Delete)
}

// Attachments

func (h *RecordHandler) ListAttachments(c *gin.Context) {
	listRecords(c, h.attachmentService.List, dto.ToAttachmentDTO)
}

func (h *RecordHandler) GetAttachment(c *gin.Context) {
	getRecord(c, h.attachmentService.Get, dto.ToAttachmentDTO)
}

// UploadAttachment stores the multipart "file" field on the task named by the "task" field.
func (h *RecordHandler) UploadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	taskID, ok := utils.ParseUint64(c.PostForm("task"))
	if !ok {
		apierrors.BadRequestWithDetails(c, "", map[string]string{"task": "required"})
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequestWithDetails(c, "", map[string]string{"file": "required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondInternal(c, err)
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.Upload(actor, services.UploadInput{
		TaskID:      taskID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAttachmentDTO(*attachment))
}

// DownloadAttachment streams the stored file.
func (h *RecordHandler) DownloadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	attachment, file, info, err := h.attachmentService.Open(actor, id)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	defer file.Close()

	if attachment.ContentType != "" {
		c.Header("Content-Type", attachment.ContentType)
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Filename}))
	http.ServeContent(c.Writer, c.Request, attachment.Filename, info.ModTime(), file)
}

func (h *RecordHandler) DeleteAttachment(c *gin.Context) {
	deleteRecord(c, h.attachmentService.Delete)
}

// History

func (h *RecordHandler) ListHistory(c *gin.Context) {
	listRecords(c, h.historyService.List, dto.ToHistoryDTO)
}

func (h *RecordHandler) GetHistory(c *gin.Context) {
	getRecord(c, h.historyService.Get, dto.ToHistoryDTO)
}

// Time logs

type timeLogRequest struct {
	Task      uint64     `json:"task"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

func (h *RecordHandler) ListTimeLogs(c *gin.Context) {
	listRecords(c, h.timeLogService.List, dto.ToTimeLogDTO)
}

func (h *RecordHandler) GetTimeLog(c *gin.Context) {
	getRecord(c, h.timeLogService.Get, dto.ToTimeLogDTO)
}

func (h *RecordHandler) CreateTimeLog(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req timeLogRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Task == 0 {
		apierrors.BadRequestWithDetails(c, "", map[string]string{"task": "required"})
		return
	}

	log, err := h.timeLogService.Create(actor, req.Task, services.TimeLogInput{StartTime: req.StartTime, EndTime: req.EndTime})
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTimeLogDTO(*log))
}

func (h *RecordHandler) UpdateTimeLog(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req timeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	log, err := h.timeLogService.Update(actor, id, services.TimeLogInput{StartTime: req.StartTime, EndTime: req.EndTime})
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogDTO(*log))
}

func (h *RecordHandler) DeleteTimeLog(c *gin.Context) {
	deleteRecord(c, h.timeLogService.Delete)
}

// Evaluations

type evaluationRequest struct {
	Task             uint64                 `json:"task"`
	Difficulty       *models.TaskDifficulty `json:"difficulty" binding:"omitempty,task_difficulty"`
	PerformanceScore *int                   `json:"performance_score"`
	Feedback         *string                `json:"feedback"`
}

func (r evaluationRequest) input() services.EvaluationInput {
	return services.EvaluationInput{
		Difficulty:       r.Difficulty,
		PerformanceScore: r.PerformanceScore,
		Feedback:         r.Feedback,
	}
}

func (h *RecordHandler) ListEvaluations(c *gin.Context) {
	listRecords(c, h.evaluationService.List, dto.ToEvaluationDTO)
}

func (h *RecordHandler) GetEvaluation(c *gin.Context) {
	getRecord(c, h.evaluationService.Get, dto.ToEvaluationDTO)
}

func (h *RecordHandler) CreateEvaluation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req evaluationRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Task == 0 {
		apierrors.BadRequestWithDetails(c, "", map[string]string{"task": "required"})
		return
	}

	evaluation, err := h.evaluationService.Create(actor, req.Task, req.input())
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEvaluationDTO(*evaluation))
}

func (h *RecordHandler) UpdateEvaluation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req evaluationRequest
	if !bindJSON(c, &req) {
		return
	}

	evaluation, err := h.evaluationService.Update(actor, id, req.input())
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEvaluationDTO(*evaluation))
}

func (h *RecordHandler) DeleteEvaluation(c *gin.Context) {
	deleteRecord(c, h.evaluationService.Delete)
}

func respondRecordError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrCommentNotFound):
		apierrors.NotFound(c, "코멘트를 찾을 수 없습니다.")
	case errors.Is(err, services.ErrEmptyComment):
		apierrors.BadRequest(c, "코멘트 내용을 입력하세요.")
	case errors.Is(err, services.ErrAttachmentNotFound):
		apierrors.NotFound(c, "첨부 파일을 찾을 수 없습니다.")
	case errors.Is(err, services.ErrEmptyFile):
		apierrors.BadRequest(c, "빈 파일은 업로드할 수 없습니다.")
	case errors.Is(err, services.ErrFileTooLarge):
		apierrors.PayloadTooLarge(c, "")
	case errors.Is(err, services.ErrHistoryNotFound):
		apierrors.NotFound(c, "작업 이력을 찾을 수 없습니다.")
	case errors.Is(err, services.ErrTimeLogNotFound):
		apierrors.NotFound(c, "작업 시간 기록을 찾을 수 없습니다.")
	case errors.Is(err, services.ErrInvalidTimeLog):
		apierrors.BadRequest(c, "종료 시간은 시작 시간보다 빠를 수 없습니다.")
	case errors.Is(err, services.ErrEvaluationNotFound):
		apierrors.NotFound(c, "평가를 찾을 수 없습니다.")
	case errors.Is(err, services.ErrTaskNotDone):
		apierrors.BadRequest(c, "완료된 작업만 평가할 수 있습니다.")
	case errors.Is(err, services.ErrInvalidScore):
		apierrors.BadRequest(c, fmt.Sprintf("성과 점수는 %d에서 %d 사이여야 합니다.", constants.MinScore, constants.MaxScore))
	default:
		respondInternal(c, err)
	}
}
