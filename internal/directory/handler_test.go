package directory_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	datamodel "github.com/frahmantamala/user-directory/internal/core/datamodel/directory"
	"github.com/frahmantamala/user-directory/internal/core/events"
	"github.com/frahmantamala/user-directory/internal/directory"
	directoryPostgres "github.com/frahmantamala/user-directory/internal/directory/postgres"
)

var _ = Describe("Directory Handler Integration", func() {
	var (
		db      *gorm.DB
		router  *chi.Mux
		slogger *slog.Logger

		engID int64
	)

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&datamodel.Department{},
			&datamodel.User{},
			&datamodel.DepartmentTransfer{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo := directoryPostgres.NewRepository(db)
		service := directory.NewService(repo, events.NewEventBus(slogger), slogger)
		handler := directory.NewHandler(service)

		router = chi.NewRouter()
		router.Get("/users/search", handler.SearchUsers)
		router.Get("/users/export", handler.ExportUsers)
		router.Get("/departments/{name}/users", handler.ListDepartmentUsers)
		router.Get("/reports/inactive-users", handler.InactiveUsersReport)
		router.Post("/users", handler.CreateUser)
		router.Post("/users/transfer", handler.TransferUser)
		router.Post("/users/bulk/department", handler.BulkAssignDepartment)
		router.Post("/users/bulk/active", handler.BulkSetActive)

		Expect(db.Exec(`INSERT INTO departments (name, code, active, created_date, last_modified_date) VALUES ('Engineering', 'ENG', TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error).NotTo(HaveOccurred())
		Expect(db.Raw(`SELECT id FROM departments WHERE code = 'ENG'`).Row().Scan(&engID)).To(Succeed())

		Expect(db.Exec(`INSERT INTO users (first_name, last_name, email, active, department_id, failed_login_attempts, created_date, last_modified_date) VALUES ('Alice', 'Anderson', 'alice@example.com', TRUE, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, engID).Error).NotTo(HaveOccurred())
	})

	Describe("GET /users/search", func() {
		It("rejects a missing term", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/search", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns matching users as JSON", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/search?q=anders", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var response struct {
				Users []directory.UserSearchRow `json:"users"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Users).To(HaveLen(1))
			Expect(response.Users[0].Email).To(Equal("alice@example.com"))
		})
	})

	Describe("GET /departments/{name}/users", func() {
		It("lists department members from the path parameter", func() {
			req := httptest.NewRequest(http.MethodGet, "/departments/Engineering/users?sort=desc", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var response struct {
				Users []directory.DepartmentUserRow `json:"users"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Users).To(HaveLen(1))
			Expect(response.Users[0].DepartmentCode).To(Equal("ENG"))
		})
	})

	Describe("POST /users", func() {
		It("creates a user and returns its id", func() {
			body := `{"first_name":"New","last_name":"Hire","email":"new@example.com","department_id":` + jsonInt(engID) + `}`
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var response map[string]int64
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response["id"]).To(BeNumerically(">", 0))
		})

		It("rejects malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"first_name":`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("surfaces a duplicate email as a conflict", func() {
			body := `{"first_name":"Dup","last_name":"User","email":"alice@example.com","department_id":` + jsonInt(engID) + `}`
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("POST /users/bulk/department", func() {
		It("reports zero updates for an empty id list", func() {
			body := `{"user_ids":[],"department_id":` + jsonInt(engID) + `}`
			req := httptest.NewRequest(http.MethodPost, "/users/bulk/department", strings.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var response map[string]int64
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response["updated"]).To(BeZero())
		})
	})

	Describe("GET /users/export", func() {
		It("rejects a non-numeric limit", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/export?limit=abc", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns the requested page with its bounds", func() {
			req := httptest.NewRequest(http.MethodGet, "/users/export?offset=0&limit=10", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var response struct {
				Offset int                       `json:"offset"`
				Limit  int                       `json:"limit"`
				Users  []directory.UserExportRow `json:"users"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Limit).To(Equal(10))
			Expect(response.Users).To(HaveLen(1))
		})
	})

	Describe("POST /users/transfer", func() {
		It("rejects incomplete parameters", func() {
			req := httptest.NewRequest(http.MethodPost, "/users/transfer", strings.NewReader(`{"user_id":1}`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
