package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"homelyquad/internal/caching"
	"homelyquad/internal/common"
	"homelyquad/internal/models"
	"homelyquad/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) Notify(ctx context.Context, event models.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// eventFor matches an event by kind and recipient.
func eventFor(kind models.NotificationKind, recipientID int64) interface{} {
	return mock.MatchedBy(func(e models.NotificationEvent) bool {
		return e.Kind == kind && e.RecipientID == recipientID
	})
}

type MaintenanceServiceTestSuite struct {
	suite.Suite
	scenario *testhelpers.Scenario
	sink     *MockNotificationSink
	service  *maintenanceService
	clock    time.Time
}

func (suite *MaintenanceServiceTestSuite) SetupTest() {
	suite.scenario = testhelpers.NewScenario()
	store := suite.scenario.Store
	suite.sink = &MockNotificationSink{}
	suite.sink.Test(suite.T())

	svc := NewMaintenanceService(
		store.Requests(),
		store.WorkOrders(),
		store.Units(),
		store.Users(),
		NewAuditLogsService(store.AuditLogs()),
		suite.sink,
		caching.NewMemoryCacheService(),
	).(*maintenanceService)

	suite.clock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		suite.clock = suite.clock.Add(time.Minute)
		return suite.clock
	}
	suite.service = svc
}

func (suite *MaintenanceServiceTestSuite) TearDownTest() {
	suite.sink.AssertExpectations(suite.T())
}

func TestMaintenanceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MaintenanceServiceTestSuite))
}

func (suite *MaintenanceServiceTestSuite) expectNotify(kind models.NotificationKind, recipientID int64) {
	suite.sink.On("Notify", mock.Anything, eventFor(kind, recipientID)).Return(nil).Once()
}

func (suite *MaintenanceServiceTestSuite) fileRequest() *models.MaintenanceRequest {
	suite.expectNotify(models.NotificationRequestCreated, testhelpers.LandlordID)
	req, err := suite.service.CreateRequest(context.Background(), testhelpers.Actor(testhelpers.TenantID), models.CreateMaintenanceRequestInput{
		UnitID:      testhelpers.UnitID,
		Title:       "Leaking kitchen tap",
		Description: "Drips all night",
		Priority:    models.PriorityHigh,
		Category:    models.CategoryPlumbing,
	})
	suite.Require().NoError(err)
	return req
}

func (suite *MaintenanceServiceTestSuite) approved() *models.MaintenanceRequest {
	req := suite.fileRequest()
	suite.expectNotify(models.NotificationRequestApproved, testhelpers.TenantID)
	req, err := suite.service.Decide(context.Background(), testhelpers.Actor(testhelpers.LandlordID), req.ID, models.DecisionInput{Decision: models.DecisionApprove})
	suite.Require().NoError(err)
	return req
}

func (suite *MaintenanceServiceTestSuite) assigned() *models.MaintenanceRequest {
	req := suite.approved()
	suite.expectNotify(models.NotificationRequestAssigned, testhelpers.WorkmanID)
	req, err := suite.service.Assign(context.Background(), testhelpers.Actor(testhelpers.LandlordID), req.ID, models.AssignInput{WorkmanID: testhelpers.WorkmanID})
	suite.Require().NoError(err)
	return req
}

func (suite *MaintenanceServiceTestSuite) assertStatus(id int64, want models.RequestStatus) {
	stored, err := suite.scenario.Store.Requests().GetByID(context.Background(), id)
	suite.Require().NoError(err)
	suite.Equal(want, stored.Status)
}

func (suite *MaintenanceServiceTestSuite) assertVisibleToParties(id int64) {
	ctx := context.Background()
	for _, party := range []int64{testhelpers.TenantID, testhelpers.LandlordID} {
		_, err := suite.service.Get(ctx, testhelpers.Actor(party), id)
		suite.NoError(err, "party %d", party)
	}
	_, err := suite.service.Get(ctx, testhelpers.Actor(testhelpers.OtherTenantID), id)
	suite.ErrorIs(err, common.ErrForbidden)
}

func (suite *MaintenanceServiceTestSuite) TestCreateRequest_Success() {
	req := suite.fileRequest()

	suite.Equal(models.StatusPending, req.Status)
	suite.Equal(testhelpers.TenantID, req.TenantID)
	suite.Equal(testhelpers.OrgID, req.OrganizationID)
	suite.Equal(models.PriorityHigh, req.Priority)
	suite.NotZero(req.ID)
	suite.Nil(req.AssignedWorkmanID)
}

func (suite *MaintenanceServiceTestSuite) TestCreateRequest_Defaults() {
	suite.expectNotify(models.NotificationRequestCreated, testhelpers.LandlordID)
	req, err := suite.service.CreateRequest(context.Background(), testhelpers.Actor(testhelpers.TenantID), models.CreateMaintenanceRequestInput{
		UnitID: testhelpers.UnitID,
		Title:  "  Broken window  ",
	})
	suite.Require().NoError(err)
	suite.Equal("Broken window", req.Title)
	suite.Equal(models.PriorityMedium, req.Priority)
	suite.Equal(models.CategoryGeneral, req.Category)
}

func (suite *MaintenanceServiceTestSuite) TestCreateRequest_TitleLimitCountsCharacters() {
	ctx := context.Background()
	tenant := testhelpers.Actor(testhelpers.TenantID)

	suite.expectNotify(models.NotificationRequestCreated, testhelpers.LandlordID)
	req, err := suite.service.CreateRequest(ctx, tenant, models.CreateMaintenanceRequestInput{
		UnitID:      testhelpers.UnitID,
		Title:       strings.Repeat("é", maxTitleLength),
		Description: strings.Repeat("水", maxDescriptionLength),
	})
	suite.Require().NoError(err)
	suite.Len([]rune(req.Title), maxTitleLength)

	_, err = suite.service.CreateRequest(ctx, tenant, models.CreateMaintenanceRequestInput{
		UnitID: testhelpers.UnitID,
		Title:  strings.Repeat("é", maxTitleLength+1),
	})
	suite.ErrorIs(err, common.ErrValidation)

	_, err = suite.service.CreateRequest(ctx, tenant, models.CreateMaintenanceRequestInput{
		UnitID:      testhelpers.UnitID,
		Title:       "水漏れ",
		Description: strings.Repeat("水", maxDescriptionLength+1),
	})
	suite.ErrorIs(err, common.ErrValidation)
}

func (suite *MaintenanceServiceTestSuite) TestReject_ReasonLimitCountsCharacters() {
	ctx := context.Background()
	landlord := testhelpers.Actor(testhelpers.LandlordID)
	req := suite.fileRequest()

	tooLong := strings.Repeat("ü", maxReasonLength+1)
	_, err := suite.service.Decide(ctx, landlord, req.ID, models.DecisionInput{Decision: models.DecisionReject, Reason: &tooLong})
	suite.ErrorIs(err, common.ErrValidation)

	reason := strings.Repeat("ü", maxReasonLength)
	suite.expectNotify(models.NotificationRequestRejected, testhelpers.TenantID)
	req, err = suite.service.Decide(ctx, landlord, req.ID, models.DecisionInput{Decision: models.DecisionReject, Reason: &reason})
	suite.Require().NoError(err)
	suite.Equal(models.StatusRejected, req.Status)
}

func (suite *MaintenanceServiceTestSuite) TestCreateRequest_Rejections() {
	ctx := context.Background()
	tenant := testhelpers.Actor(testhelpers.TenantID)
	long := make([]byte, maxTitleLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name  string
		actor models.ActingUser
		input models.CreateMaintenanceRequestInput
		want  error
	}{
		{"landlord cannot file", testhelpers.Actor(testhelpers.LandlordID), models.CreateMaintenanceRequestInput{UnitID: testhelpers.UnitID, Title: "x"}, common.ErrForbidden},
		{"admin cannot file", testhelpers.Actor(testhelpers.AdminID), models.CreateMaintenanceRequestInput{UnitID: testhelpers.UnitID, Title: "x"}, common.ErrForbidden},
		{"missing title", tenant, models.CreateMaintenanceRequestInput{UnitID: testhelpers.UnitID}, common.ErrValidation},
		{"title too long", tenant, models.CreateMaintenanceRequestInput{UnitID: testhelpers.UnitID, Title: string(long)}, common.ErrValidation},
		{"critical priority", tenant, models.CreateMaintenanceRequestInput{UnitID: testhelpers.UnitID, Title: "x", Priority: "critical"}, common.ErrValidation},
		{"unknown category", tenant, models.CreateMaintenanceRequestInput{UnitID: testhelpers.UnitID, Title: "x", Category: "garden"}, common.ErrValidation},
		{"unknown unit", tenant, models.CreateMaintenanceRequestInput{UnitID: 999, Title: "x"}, common.ErrNotFound},
		{"unit of another organization", tenant, models.CreateMaintenanceRequestInput{UnitID: testhelpers.ForeignUnitID, Title: "x"}, common.ErrNotFound},
		{"no lease on unit", tenant, models.CreateMaintenanceRequestInput{UnitID: testhelpers.OtherUnitID, Title: "x"}, common.ErrForbidden},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			req, err := suite.service.CreateRequest(ctx, tt.actor, tt.input)
			suite.Nil(req)
			suite.ErrorIs(err, tt.want)
		})
	}
}

func (suite *MaintenanceServiceTestSuite) TestFullLifecycle() {
	ctx := context.Background()
	landlord := testhelpers.Actor(testhelpers.LandlordID)
	workman := testhelpers.Actor(testhelpers.WorkmanID)

	req := suite.fileRequest()
	suite.assertVisibleToParties(req.ID)

	cost := 120.0
	suite.expectNotify(models.NotificationRequestApproved, testhelpers.TenantID)
	req, err := suite.service.Decide(ctx, landlord, req.ID, models.DecisionInput{Decision: models.DecisionApprove, EstimatedCost: &cost})
	suite.Require().NoError(err)
	suite.Equal(models.StatusApproved, req.Status)
	suite.NotNil(req.ApprovedAt)
	suite.Equal(&cost, req.EstimatedCost)
	suite.assertVisibleToParties(req.ID)

	hours := 3.5
	suite.expectNotify(models.NotificationRequestAssigned, testhelpers.WorkmanID)
	req, err = suite.service.Assign(ctx, landlord, req.ID, models.AssignInput{WorkmanID: testhelpers.WorkmanID, EstimatedHours: &hours})
	suite.Require().NoError(err)
	suite.Equal(models.StatusAssigned, req.Status)
	suite.Require().NotNil(req.AssignedWorkmanID)
	suite.Equal(testhelpers.WorkmanID, *req.AssignedWorkmanID)

	wo, err := suite.service.GetWorkOrder(ctx, workman, req.ID)
	suite.Require().NoError(err)
	suite.Equal(models.WorkOrderAssigned, wo.Status)
	suite.Equal(&hours, wo.EstimatedHours)

	suite.expectNotify(models.NotificationRequestStarted, testhelpers.TenantID)
	req, err = suite.service.Start(ctx, workman, req.ID)
	suite.Require().NoError(err)
	suite.Equal(models.StatusInProgress, req.Status)
	suite.NotNil(req.StartedAt)
	_, err = suite.service.Get(ctx, workman, req.ID)
	suite.NoError(err)

	actual := 95.0
	notes := "Replaced washer"
	suite.expectNotify(models.NotificationRequestCompleted, testhelpers.TenantID)
	suite.expectNotify(models.NotificationRequestCompleted, testhelpers.LandlordID)
	req, err = suite.service.Complete(ctx, workman, req.ID, models.CompletionInput{ActualCost: &actual, Notes: &notes})
	suite.Require().NoError(err)
	suite.Equal(models.StatusCompleted, req.Status)
	suite.NotNil(req.CompletedAt)
	suite.Equal(&actual, req.ActualCost)
	suite.assertVisibleToParties(req.ID)

	wo, err = suite.service.GetWorkOrder(ctx, testhelpers.Actor(testhelpers.TenantID), req.ID)
	suite.Require().NoError(err)
	suite.Equal(models.WorkOrderCompleted, wo.Status)
	suite.Equal(&notes, wo.Notes)

	history, err := suite.service.History(ctx, landlord, req.ID, 0, 0)
	suite.Require().NoError(err)
	suite.Len(history, 5)
}

func (suite *MaintenanceServiceTestSuite) TestRejectedRequestIsTerminal() {
	ctx := context.Background()
	landlord := testhelpers.Actor(testhelpers.LandlordID)
	workman := testhelpers.Actor(testhelpers.WorkmanID)
	req := suite.fileRequest()

	reason := "Tenant damage, not covered"
	suite.expectNotify(models.NotificationRequestRejected, testhelpers.TenantID)
	req, err := suite.service.Decide(ctx, landlord, req.ID, models.DecisionInput{Decision: models.DecisionReject, Reason: &reason})
	suite.Require().NoError(err)
	suite.Equal(models.StatusRejected, req.Status)
	suite.NotNil(req.RejectedAt)
	suite.Equal(&reason, req.RejectionReason)

	_, err = suite.service.Assign(ctx, landlord, req.ID, models.AssignInput{WorkmanID: testhelpers.WorkmanID})
	suite.ErrorIs(err, common.ErrInvalidTransition)
	_, err = suite.service.Start(ctx, workman, req.ID)
	suite.ErrorIs(err, common.ErrInvalidTransition)
	_, err = suite.service.Complete(ctx, workman, req.ID, models.CompletionInput{})
	suite.ErrorIs(err, common.ErrInvalidTransition)
	_, err = suite.service.Decide(ctx, landlord, req.ID, models.DecisionInput{Decision: models.DecisionApprove})
	suite.ErrorIs(err, common.ErrInvalidTransition)

	suite.assertStatus(req.ID, models.StatusRejected)
}

func (suite *MaintenanceServiceTestSuite) TestAssignWhilePending() {
	req := suite.fileRequest()

	_, err := suite.service.Assign(context.Background(), testhelpers.Actor(testhelpers.LandlordID), req.ID, models.AssignInput{WorkmanID: testhelpers.WorkmanID})

	suite.ErrorIs(err, common.ErrInvalidTransition)
	suite.assertStatus(req.ID, models.StatusPending)
	_, err = suite.scenario.Store.WorkOrders().GetByRequestID(context.Background(), req.ID)
	suite.ErrorIs(err, common.ErrNotFound)
}

func (suite *MaintenanceServiceTestSuite) TestReapplyingTransitionIsInvalid() {
	req := suite.approved()

	_, err := suite.service.Decide(context.Background(), testhelpers.Actor(testhelpers.LandlordID), req.ID, models.DecisionInput{Decision: models.DecisionApprove})

	suite.ErrorIs(err, common.ErrInvalidTransition)
	suite.assertStatus(req.ID, models.StatusApproved)
}

func (suite *MaintenanceServiceTestSuite) TestNonPartiesAreForbidden() {
	ctx := context.Background()
	req := suite.assigned()

	landlordOnly := []models.ActingUser{
		testhelpers.Actor(testhelpers.OtherLandlordID),
		testhelpers.Actor(testhelpers.TenantID),
		testhelpers.Actor(testhelpers.WorkmanID),
		testhelpers.Actor(testhelpers.AdminID),
	}
	for _, actor := range landlordOnly {
		_, err := suite.service.Decide(ctx, actor, req.ID, models.DecisionInput{Decision: models.DecisionReject})
		suite.ErrorIs(err, common.ErrForbidden, "decide by %d", actor.ID)
	}

	workmanOnly := []models.ActingUser{
		testhelpers.Actor(testhelpers.OtherWorkmanID),
		testhelpers.Actor(testhelpers.LandlordID),
		testhelpers.Actor(testhelpers.TenantID),
		testhelpers.Actor(testhelpers.AdminID),
	}
	for _, actor := range workmanOnly {
		_, err := suite.service.Start(ctx, actor, req.ID)
		suite.ErrorIs(err, common.ErrForbidden, "start by %d", actor.ID)
		_, err = suite.service.Complete(ctx, actor, req.ID, models.CompletionInput{})
		suite.ErrorIs(err, common.ErrForbidden, "complete by %d", actor.ID)
	}

	suite.assertStatus(req.ID, models.StatusAssigned)
}

func (suite *MaintenanceServiceTestSuite) TestVisibility() {
	ctx := context.Background()
	req := suite.fileRequest()

	_, err := suite.service.Get(ctx, testhelpers.Actor(testhelpers.OtherTenantID), req.ID)
	suite.ErrorIs(err, common.ErrForbidden)

	_, err = suite.service.Get(ctx, testhelpers.Actor(testhelpers.WorkmanID), req.ID)
	suite.ErrorIs(err, common.ErrForbidden)

	_, err = suite.service.Get(ctx, testhelpers.Actor(testhelpers.AdminID), req.ID)
	suite.ErrorIs(err, common.ErrForbidden)

	_, err = suite.service.Get(ctx, testhelpers.Actor(testhelpers.ForeignTenantID), req.ID)
	suite.ErrorIs(err, common.ErrNotFound)

	_, err = suite.service.Get(ctx, testhelpers.Actor(testhelpers.TenantID), 9999)
	suite.ErrorIs(err, common.ErrNotFound)
}

func (suite *MaintenanceServiceTestSuite) TestAssignValidatesWorkman() {
	ctx := context.Background()
	landlord := testhelpers.Actor(testhelpers.LandlordID)
	req := suite.approved()

	for _, workmanID := range []int64{testhelpers.TenantID, testhelpers.ForeignWorkerID, 777} {
		_, err := suite.service.Assign(ctx, landlord, req.ID, models.AssignInput{WorkmanID: workmanID})
		suite.ErrorIs(err, common.ErrValidation, "workman %d", workmanID)
	}
	suite.assertStatus(req.ID, models.StatusApproved)
}

func (suite *MaintenanceServiceTestSuite) TestNotificationFailureDoesNotUndoTransition() {
	req := suite.fileRequest()
	suite.sink.On("Notify", mock.Anything, eventFor(models.NotificationRequestApproved, testhelpers.TenantID)).
		Return(errors.New("smtp down")).Once()

	updated, err := suite.service.Decide(context.Background(), testhelpers.Actor(testhelpers.LandlordID), req.ID, models.DecisionInput{Decision: models.DecisionApprove})

	suite.Require().NoError(err)
	suite.Equal(models.StatusApproved, updated.Status)
	suite.assertStatus(req.ID, models.StatusApproved)
}

func (suite *MaintenanceServiceTestSuite) TestList_ScopedByRole() {
	ctx := context.Background()
	req := suite.assigned()

	// a second request on another unit, invisible to our landlord and tenant
	suite.sink.On("Notify", mock.Anything, eventFor(models.NotificationRequestCreated, testhelpers.OtherLandlordID)).Return(nil).Once()
	_, err := suite.service.CreateRequest(ctx, testhelpers.Actor(testhelpers.OtherTenantID), models.CreateMaintenanceRequestInput{UnitID: testhelpers.OtherUnitID, Title: "Mould"})
	suite.Require().NoError(err)

	for _, id := range []int64{testhelpers.TenantID, testhelpers.LandlordID, testhelpers.WorkmanID} {
		list, err := suite.service.List(ctx, testhelpers.Actor(id), models.ListMaintenanceRequestsInput{})
		suite.Require().NoError(err)
		suite.Require().Len(list, 1, "user %d", id)
		suite.Equal(req.ID, list[0].ID)
	}

	list, err := suite.service.List(ctx, testhelpers.Actor(testhelpers.OtherWorkmanID), models.ListMaintenanceRequestsInput{})
	suite.Require().NoError(err)
	suite.Empty(list)

	list, err = suite.service.List(ctx, testhelpers.Actor(testhelpers.LandlordID), models.ListMaintenanceRequestsInput{Status: "pending"})
	suite.Require().NoError(err)
	suite.Empty(list)

	_, err = suite.service.List(ctx, testhelpers.Actor(testhelpers.LandlordID), models.ListMaintenanceRequestsInput{Status: "cancelled"})
	suite.ErrorIs(err, common.ErrValidation)

	_, err = suite.service.List(ctx, testhelpers.Actor(testhelpers.AdminID), models.ListMaintenanceRequestsInput{})
	suite.ErrorIs(err, common.ErrForbidden)
}

func (suite *MaintenanceServiceTestSuite) TestRemindStalePending() {
	suite.fileRequest()
	suite.approved()

	suite.expectNotify(models.NotificationRequestReminder, testhelpers.LandlordID)
	sent, err := suite.service.RemindStalePending(context.Background(), time.Second, 10)

	suite.Require().NoError(err)
	suite.Equal(1, sent)
}

func (suite *MaintenanceServiceTestSuite) TestRemindStalePending_OncePerWindow() {
	ctx := context.Background()
	suite.fileRequest()
	frozen := suite.clock.Add(2 * time.Hour)
	suite.service.now = func() time.Time { return frozen }

	suite.expectNotify(models.NotificationRequestReminder, testhelpers.LandlordID)
	sent, err := suite.service.RemindStalePending(ctx, time.Hour, 10)
	suite.Require().NoError(err)
	suite.Equal(1, sent)

	sent, err = suite.service.RemindStalePending(ctx, time.Hour, 10)
	suite.Require().NoError(err)
	suite.Zero(sent)

	frozen = frozen.Add(61 * time.Minute)
	suite.expectNotify(models.NotificationRequestReminder, testhelpers.LandlordID)
	sent, err = suite.service.RemindStalePending(ctx, time.Hour, 10)
	suite.Require().NoError(err)
	suite.Equal(1, sent)
}

func (suite *MaintenanceServiceTestSuite) TestRemindStalePending_RetriesUndelivered() {
	ctx := context.Background()
	suite.fileRequest()
	frozen := suite.clock.Add(2 * time.Hour)
	suite.service.now = func() time.Time { return frozen }

	suite.sink.On("Notify", mock.Anything, eventFor(models.NotificationRequestReminder, testhelpers.LandlordID)).
		Return(errors.New("smtp down")).Once()
	sent, err := suite.service.RemindStalePending(ctx, time.Hour, 10)
	suite.Require().NoError(err)
	suite.Zero(sent)

	suite.expectNotify(models.NotificationRequestReminder, testhelpers.LandlordID)
	sent, err = suite.service.RemindStalePending(ctx, time.Hour, 10)
	suite.Require().NoError(err)
	suite.Equal(1, sent)
}

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	for i := 0; i < 20; i++ {
		scenario := testhelpers.NewScenario()
		store := scenario.Store
		svc := NewMaintenanceService(store.Requests(), store.WorkOrders(), store.Units(), store.Users(), nil, nil, nil)
		ctx := context.Background()
		landlord := testhelpers.Actor(testhelpers.LandlordID)

		req, err := svc.CreateRequest(ctx, testhelpers.Actor(testhelpers.TenantID), models.CreateMaintenanceRequestInput{UnitID: testhelpers.UnitID, Title: "No heat"})
		require.NoError(t, err)

		decisions := []models.Decision{models.DecisionApprove, models.DecisionReject}
		results := make([]*models.MaintenanceRequest, len(decisions))
		errs := make([]error, len(decisions))

		var wg sync.WaitGroup
		start := make(chan struct{})
		for idx, decision := range decisions {
			wg.Add(1)
			go func(idx int, decision models.Decision) {
				defer wg.Done()
				<-start
				results[idx], errs[idx] = svc.Decide(ctx, landlord, req.ID, models.DecisionInput{Decision: decision})
			}(idx, decision)
		}
		close(start)
		wg.Wait()

		var winner *models.MaintenanceRequest
		failures := 0
		for idx := range decisions {
			if errs[idx] == nil {
				winner = results[idx]
				continue
			}
			failures++
			assert.True(t, errors.Is(errs[idx], common.ErrConflict) || errors.Is(errs[idx], common.ErrInvalidTransition), errs[idx])
		}
		require.NotNil(t, winner)
		assert.Equal(t, 1, failures)

		stored, err := store.Requests().GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, winner.Status, stored.Status)
	}
}
