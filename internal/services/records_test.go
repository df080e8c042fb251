package services

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/utils"
)

func (suite *ServiceTestSuite) TestAttachmentUploadAndDownload() {
	svc := NewAttachmentService(suite.repos, suite.scopes, suite.files, 16, zap.NewNop())
	task := suite.createTask("첨부", suite.emp1, suite.t1)

	_, err := svc.Upload(suite.emp1, UploadInput{TaskID: task.ID, Filename: "empty.txt", Content: strings.NewReader("")})
	suite.ErrorIs(err, ErrEmptyFile)
	_, err = svc.Upload(suite.emp1, UploadInput{TaskID: task.ID, Filename: "big.txt", Size: 17, Content: strings.NewReader(strings.Repeat("x", 17))})
	suite.ErrorIs(err, ErrFileTooLarge)
	_, err = svc.Upload(suite.emp3, UploadInput{TaskID: task.ID, Filename: "a.txt", Size: 5, Content: strings.NewReader("hello")})
	suite.ErrorIs(err, ErrTaskNotFound)

	attachment, err := svc.Upload(suite.emp1, UploadInput{
		TaskID:      task.ID,
		Filename:    "../notes.txt",
		ContentType: "text/plain",
		Size:        5,
		Content:     strings.NewReader("hello"),
	})
	suite.Require().NoError(err)
	suite.Equal("notes.txt", attachment.Filename)
	suite.EqualValues(5, attachment.Size)

	_, file, info, err := svc.Open(suite.manager, attachment.ID)
	suite.Require().NoError(err)
	defer file.Close()
	body, err := io.ReadAll(file)
	suite.Require().NoError(err)
	suite.Equal("hello", string(body))
	suite.EqualValues(5, info.Size())

	suite.ErrorIs(svc.Delete(suite.manager, attachment.ID), ErrPermissionDenied)
	suite.Require().NoError(svc.Delete(suite.emp1, attachment.ID))
	_, _, _, err = svc.Open(suite.emp1, attachment.ID)
	suite.ErrorIs(err, ErrAttachmentNotFound)
}

func (suite *ServiceTestSuite) TestTimeLogs() {
	svc := NewTimeLogService(suite.repos, suite.scopes)
	svc.now = suite.clock()
	task := suite.createTask("작업 시간", suite.emp1, suite.t1)

	log, err := svc.Create(suite.emp1, task.ID, TimeLogInput{})
	suite.Require().NoError(err)
	suite.True(log.StartTime.Equal(suite.now))
	suite.Nil(log.EndTime)

	before := suite.now.Add(-time.Hour)
	_, err = svc.Update(suite.emp1, log.ID, TimeLogInput{EndTime: &before})
	suite.ErrorIs(err, ErrInvalidTimeLog)

	_, err = svc.Update(suite.manager, log.ID, TimeLogInput{EndTime: &before})
	suite.ErrorIs(err, ErrPermissionDenied)

	end := suite.now.Add(90 * time.Minute)
	closed, err := svc.Update(suite.emp1, log.ID, TimeLogInput{EndTime: &end})
	suite.Require().NoError(err)
	suite.Equal(90*time.Minute, closed.Duration())

	logs, total, err := svc.List(suite.manager, &task.ID, utils.PaginationParams{})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Len(logs, 1)

	_, err = svc.Get(suite.emp3, log.ID)
	suite.ErrorIs(err, ErrTimeLogNotFound)
	suite.Require().NoError(svc.Delete(suite.emp1, log.ID))
}

func (suite *ServiceTestSuite) TestHistoryVisibility() {
	task := suite.createTask("이력", suite.emp1, suite.t1)
	review := models.TaskStatusReview
	_, err := suite.taskService().Update(suite.emp1, task.ID, UpdateTaskInput{Status: &review})
	suite.Require().NoError(err)

	svc := NewHistoryService(suite.repos, suite.scopes)
	histories, total, err := svc.List(suite.manager, &task.ID, utils.PaginationParams{})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Require().Len(histories, 1)

	_, err = svc.Get(suite.outsider, histories[0].ID)
	suite.ErrorIs(err, ErrHistoryNotFound)

	_, total, err = svc.List(suite.emp3, nil, utils.PaginationParams{})
	suite.Require().NoError(err)
	suite.Zero(total)
}

func (suite *ServiceTestSuite) TestReportTemplates() {
	svc := NewReportTemplateService(suite.repos.ReportTemplates)
	name := "월간 보고"

	_, err := svc.Create(suite.emp1, ReportTemplateInput{Name: &name, Content: json.RawMessage(`"text"`)})
	suite.ErrorIs(err, ErrInvalidTemplateContent)
	blank := "  "
	_, err = svc.Create(suite.emp1, ReportTemplateInput{Name: &blank, Content: json.RawMessage(`{}`)})
	suite.ErrorIs(err, ErrInvalidTemplateName)

	template, err := svc.Create(suite.emp1, ReportTemplateInput{Name: &name, Content: json.RawMessage(` {"sections":["basic"]} `)})
	suite.Require().NoError(err)
	suite.Equal(`{"sections":["basic"]}`, template.Content)

	_, err = svc.Get(suite.emp2, template.ID)
	suite.ErrorIs(err, ErrReportTemplateNotFound)

	renamed := "주간 보고"
	updated, err := svc.Update(suite.admin, template.ID, ReportTemplateInput{Name: &renamed})
	suite.Require().NoError(err)
	suite.Equal(renamed, updated.Name)
	suite.Equal(`{"sections":["basic"]}`, updated.Content)

	_, total, err := svc.List(suite.emp2, utils.PaginationParams{})
	suite.Require().NoError(err)
	suite.Zero(total)
	_, total, err = svc.List(suite.admin, utils.PaginationParams{})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)

	suite.Require().NoError(svc.Delete(suite.emp1, template.ID))
}

func (suite *ServiceTestSuite) TestDepartmentTree() {
	svc := NewDepartmentService(suite.repos, suite.files, zap.NewNop())

	_, err := svc.Create(suite.manager, DepartmentInput{Name: "신규", Code: "NEW"})
	suite.ErrorIs(err, ErrPermissionDenied)
	_, err = svc.Create(suite.admin, DepartmentInput{Name: "중복", Code: "T1"})
	suite.ErrorIs(err, ErrDepartmentCodeTaken)
	_, err = svc.Create(suite.admin, DepartmentInput{Name: "손자", Code: "T1A", ParentID: &suite.t1.ID})
	suite.ErrorIs(err, ErrParentNotHeadquarters)
	_, err = svc.Update(suite.admin, suite.hq1.ID, DepartmentInput{Name: "HQ1 부서", Code: "HQ1", ParentID: &suite.hq2.ID})
	suite.ErrorIs(err, ErrDepartmentHasChildren)

	team, err := svc.Create(suite.admin, DepartmentInput{Name: "T3 부서", Code: "T3", ParentID: &suite.hq2.ID})
	suite.Require().NoError(err)
	suite.False(team.IsHeadquarters())

	children, err := svc.Children(suite.hq1.ID)
	suite.Require().NoError(err)
	suite.Len(children, 2)

	task := suite.createTask("T2 작업", suite.emp3, suite.t2)
	suite.Require().NoError(svc.Delete(suite.admin, suite.t2.ID))

	_, err = suite.repos.Tasks.FindByID(task.ID)
	suite.Error(err)
	member, err := suite.repos.Users.FindByID(suite.emp3.ID)
	suite.Require().NoError(err)
	suite.Nil(member.DepartmentID)
}
