package directory_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/user-directory/internal"
	"github.com/frahmantamala/user-directory/internal/core/events"
	"github.com/frahmantamala/user-directory/internal/directory"
)

func TestDirectoryService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Directory Service Suite")
}

// MockStore implements directory.Store for testing
type MockStore struct {
	searchCalls   []string
	listCalls     [][2]string
	bulkDeptCalls int
	createCalls   []directory.CreateUserParams
	transferCalls int

	searchRows  []directory.UserSearchRow
	createID    int64
	failWith    error
	affectedRet int64
}

func (m *MockStore) SearchUsersByName(ctx context.Context, term string) ([]directory.UserSearchRow, error) {
	m.searchCalls = append(m.searchCalls, term)
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.searchRows, nil
}

func (m *MockStore) GetUsersByDepartment(ctx context.Context, departmentName, sortOrder string) ([]directory.DepartmentUserRow, error) {
	m.listCalls = append(m.listCalls, [2]string{departmentName, sortOrder})
	if m.failWith != nil {
		return nil, m.failWith
	}
	return []directory.DepartmentUserRow{}, nil
}

func (m *MockStore) BulkAssignDepartment(ctx context.Context, userIDs []int64, departmentID int64) (int64, error) {
	m.bulkDeptCalls++
	if m.failWith != nil {
		return 0, m.failWith
	}
	return m.affectedRet, nil
}

func (m *MockStore) BulkSetActive(ctx context.Context, userIDs []int64, active bool) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	return m.affectedRet, nil
}

func (m *MockStore) InactiveUsersReport(ctx context.Context) ([]directory.InactiveUserRow, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return []directory.InactiveUserRow{}, nil
}

func (m *MockStore) GetUserForAuthentication(ctx context.Context, email string) (directory.AuthCredentials, bool, error) {
	return directory.AuthCredentials{}, false, nil
}

func (m *MockStore) ExportUsersPaginated(ctx context.Context, offset, limit int) ([]directory.UserExportRow, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return []directory.UserExportRow{}, nil
}

func (m *MockStore) CreateUser(ctx context.Context, params directory.CreateUserParams) (int64, error) {
	m.createCalls = append(m.createCalls, params)
	if m.failWith != nil {
		return 0, m.failWith
	}
	return m.createID, nil
}

func (m *MockStore) TransferUserBetweenDepartments(ctx context.Context, userID, fromDepartmentID, toDepartmentID int64) error {
	m.transferCalls++
	return m.failWith
}

func (m *MockStore) RecordLoginSuccess(ctx context.Context, userID int64) error {
	return m.failWith
}

func (m *MockStore) RecordLoginFailure(ctx context.Context, userID int64, lockedUntil *time.Time) error {
	return m.failWith
}

var _ = Describe("Directory Service", func() {
	var (
		store   *MockStore
		bus     *events.EventBus
		service *directory.Service
		ctx     context.Context
		logger  *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		store = &MockStore{createID: 7, affectedRet: 2}
		bus = events.NewEventBus(logger)
		service = directory.NewService(store, bus, logger)
		ctx = context.Background()
	})

	Describe("SearchUsersByName", func() {
		It("rejects a blank term without calling the store", func() {
			_, err := service.SearchUsersByName(ctx, "   ")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(store.searchCalls).To(BeEmpty())
		})

		It("trims the term before delegating", func() {
			store.searchRows = []directory.UserSearchRow{{ID: 1, FirstName: "A"}}
			rows, err := service.SearchUsersByName(ctx, "  smith  ")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(store.searchCalls).To(Equal([]string{"smith"}))
		})
	})

	Describe("GetUsersByDepartment", func() {
		It("rejects a blank department name", func() {
			_, err := service.GetUsersByDepartment(ctx, "", "ASC")
			Expect(err).To(HaveOccurred())
			Expect(store.listCalls).To(BeEmpty())
		})

		It("passes the raw sort token through for the store to normalize", func() {
			_, err := service.GetUsersByDepartment(ctx, "Engineering", "whatever")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.listCalls).To(HaveLen(1))
			Expect(store.listCalls[0][1]).To(Equal("whatever"))
		})
	})

	Describe("BulkAssignDepartment", func() {
		It("rejects a non-positive department id", func() {
			_, err := service.BulkAssignDepartment(ctx, directory.BulkDepartmentParams{UserIDs: []int64{1}, DepartmentID: 0})
			Expect(err).To(HaveOccurred())
			Expect(store.bulkDeptCalls).To(BeZero())
		})

		It("returns the affected count from the store", func() {
			affected, err := service.BulkAssignDepartment(ctx, directory.BulkDepartmentParams{UserIDs: []int64{1, 2, 3}, DepartmentID: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(affected).To(Equal(int64(2)))
		})
	})

	Describe("ExportUsersPaginated", func() {
		It("rejects a negative offset", func() {
			_, err := service.ExportUsersPaginated(ctx, directory.PageParams{Offset: -1, Limit: 10})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a limit above the page-size ceiling", func() {
			_, err := service.ExportUsersPaginated(ctx, directory.PageParams{Offset: 0, Limit: directory.MaxPageSize + 1})
			Expect(err).To(HaveOccurred())
		})

		It("accepts a valid page", func() {
			_, err := service.ExportUsersPaginated(ctx, directory.PageParams{Offset: 0, Limit: 100})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("CreateUser", func() {
		validParams := directory.CreateUserParams{
			FirstName:    "New",
			LastName:     "User",
			Email:        "new@example.com",
			DepartmentID: 1,
		}

		It("rejects invalid input before reaching the store", func() {
			_, err := service.CreateUser(ctx, directory.CreateUserParams{Email: "not-an-email"})
			Expect(err).To(HaveOccurred())
			Expect(store.createCalls).To(BeEmpty())
		})

		It("returns the new id and publishes a created event", func() {
			received := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) error {
				received <- e
				return nil
			})

			id, err := service.CreateUser(ctx, validParams)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(int64(7)))

			Eventually(received).Should(Receive())
		})

		It("propagates store errors without publishing", func() {
			store.failWith = internal.NewConflictError("a user with this email already exists", internal.ErrCodeDuplicateEmail)
			received := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) error {
				received <- e
				return nil
			})

			_, err := service.CreateUser(ctx, validParams)
			Expect(err).To(HaveOccurred())
			Consistently(received).ShouldNot(Receive())
		})
	})

	Describe("TransferUserBetweenDepartments", func() {
		It("rejects missing ids before reaching the store", func() {
			err := service.TransferUserBetweenDepartments(ctx, directory.TransferParams{UserID: 1})
			Expect(err).To(HaveOccurred())
			Expect(store.transferCalls).To(BeZero())
		})

		It("publishes a transferred event on success", func() {
			received := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeUserTransferred, func(ctx context.Context, e events.Event) error {
				received <- e
				return nil
			})

			err := service.TransferUserBetweenDepartments(ctx, directory.TransferParams{
				UserID: 1, FromDepartmentID: 2, ToDepartmentID: 3,
			})
			Expect(err).NotTo(HaveOccurred())
			Eventually(received).Should(Receive())
		})
	})
})
