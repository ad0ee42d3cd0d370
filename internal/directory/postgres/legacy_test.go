package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/user-directory/internal/directory"
	directoryPostgres "github.com/frahmantamala/user-directory/internal/directory/postgres"
)

// These specs document the defects of the string-building strategy. They
// assert that the defects are observable, which is exactly what makes the
// fixture useful as a contrast to Repository.
var _ = Describe("Legacy Repository", func() {
	var (
		db       *gorm.DB
		recorder *sqlRecorder
		repo     *directoryPostgres.LegacyRepository
		ctx      context.Context

		engID int64
		slsID int64
	)

	BeforeEach(func() {
		recorder = &sqlRecorder{}
		db = openTestDB(recorder)
		repo = directoryPostgres.NewLegacyRepository(db)
		ctx = context.Background()

		engID = seedDepartment(db, "Engineering", "ENG", true)
		slsID = seedDepartment(db, "Sales", "SLS", true)
	})

	Describe("SearchUsersByName", func() {
		BeforeEach(func() {
			seedUser(db, userSeed{FirstName: "Alice", LastName: "Anderson", Email: "alice@example.com", Active: true, DepartmentID: &engID})
			seedUser(db, userSeed{FirstName: "Bob", LastName: "Brown", Email: "bob@example.com", Active: false, DepartmentID: &engID})
		})

		It("lets an injection payload widen the result to every row", func() {
			rows, err := repo.SearchUsersByName(ctx, "' OR 1=1 --")
			Expect(err).NotTo(HaveOccurred())
			// nobody is named that, yet both users come back
			Expect(rows).To(HaveLen(2))
		})

		It("breaks on a single quote and leaks the statement in the error", func() {
			_, err := repo.SearchUsersByName(ctx, "O'Brien")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("SELECT"))
		})

		It("returns deactivated users because the active filter is missing", func() {
			rows, err := repo.SearchUsersByName(ctx, "Brown")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Active).To(BeFalse())
		})
	})

	Describe("GetUsersByDepartment", func() {
		BeforeEach(func() {
			seedUser(db, userSeed{FirstName: "Alice", LastName: "Anderson", Email: "alice@example.com", Active: true, DepartmentID: &engID})
		})

		It("breaks on a quoted department name and leaks the statement", func() {
			_, err := repo.GetUsersByDepartment(ctx, "Eng'neering", "ASC")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("ORDER BY"))
		})
	})

	Describe("bulk operations", func() {
		var ids []int64

		BeforeEach(func() {
			ids = nil
			for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
				ids = append(ids, seedUser(db, userSeed{FirstName: "Bulk", LastName: "User", Email: email, Active: true, DepartmentID: &engID}))
			}
		})

		It("issues one update per user instead of a single command", func() {
			recorder.reset()
			affected, err := repo.BulkAssignDepartment(ctx, ids, slsID)
			Expect(err).NotTo(HaveOccurred())
			Expect(affected).To(Equal(int64(3)))
			Expect(recorder.countContaining("UPDATE users")).To(Equal(len(ids)))
		})

		It("does the same for status updates", func() {
			recorder.reset()
			affected, err := repo.BulkSetActive(ctx, ids, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(affected).To(Equal(int64(3)))
			Expect(recorder.countContaining("UPDATE users")).To(Equal(len(ids)))
		})
	})

	Describe("GetUserForAuthentication", func() {
		It("resolves deactivated accounts", func() {
			seedUser(db, userSeed{FirstName: "Gone", LastName: "User", Email: "gone@example.com", Active: false, DepartmentID: &engID, PasswordHash: "$2a$10$hash"})

			creds, found, err := repo.GetUserForAuthentication(ctx, "gone@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(creds.Active).To(BeFalse())
		})
	})

	Describe("ExportUsersPaginated", func() {
		It("slices pages in memory after fetching the whole table", func() {
			for _, email := range []string{"p1@example.com", "p2@example.com", "p3@example.com"} {
				seedUser(db, userSeed{FirstName: "Page", LastName: "Row", Email: email, Active: true, DepartmentID: &engID})
			}

			rows, err := repo.ExportUsersPaginated(ctx, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Email).To(Equal("p2@example.com"))

			rows, err = repo.ExportUsersPaginated(ctx, 10, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})

	Describe("CreateUser", func() {
		It("inserts without any department or uniqueness checks", func() {
			id, err := repo.CreateUser(ctx, directory.CreateUserParams{
				FirstName:    "No",
				LastName:     "Checks",
				Email:        "nochecks@example.com",
				DepartmentID: 99999,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(BeNumerically(">", 0))
		})

		It("breaks on an apostrophe in a name and leaks the insert", func() {
			_, err := repo.CreateUser(ctx, directory.CreateUserParams{
				FirstName:    "Pat",
				LastName:     "O'Brien",
				Email:        "pob@example.com",
				DepartmentID: engID,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("INSERT INTO users"))
		})
	})

	Describe("TransferUserBetweenDepartments", func() {
		It("leaves the department update committed when the audit insert fails", func() {
			userID := seedUser(db, userSeed{FirstName: "Move", LastName: "Me", Email: "move@example.com", Active: true, DepartmentID: &engID})
			Expect(db.Exec(`DROP TABLE department_transfers`).Error).NotTo(HaveOccurred())

			err := repo.TransferUserBetweenDepartments(ctx, userID, engID, slsID)
			Expect(err).To(HaveOccurred())

			// the half-applied write is the defect being demonstrated
			var deptID int64
			Expect(db.Raw(`SELECT department_id FROM users WHERE id = ?`, userID).Row().Scan(&deptID)).To(Succeed())
			Expect(deptID).To(Equal(slsID))
		})

		It("skips the source membership check entirely", func() {
			userID := seedUser(db, userSeed{FirstName: "Else", LastName: "Where", Email: "else@example.com", Active: true, DepartmentID: &slsID})

			// claims the user came from engineering; nobody verifies it
			Expect(repo.TransferUserBetweenDepartments(ctx, userID, engID, slsID)).To(Succeed())

			var from int64
			Expect(db.Raw(`SELECT from_department_id FROM department_transfers WHERE user_id = ?`, userID).Row().Scan(&from)).To(Succeed())
			Expect(from).To(Equal(engID))
		})
	})

	Describe("RecordLoginFailure", func() {
		It("interpolates the lockout timestamp as text", func() {
			userID := seedUser(db, userSeed{FirstName: "Late", LastName: "Night", Email: "late@example.com", Active: true, DepartmentID: &engID})
			until := time.Now().Add(15 * time.Minute)

			Expect(repo.RecordLoginFailure(ctx, userID, &until)).To(Succeed())

			var failed int
			Expect(db.Raw(`SELECT failed_login_attempts FROM users WHERE id = ?`, userID).Row().Scan(&failed)).To(Succeed())
			Expect(failed).To(Equal(1))
		})
	})
})
