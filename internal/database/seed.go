// internal/database/seed.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/loan-manager/internal/models"
)

func seedDate(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// SampleApplications is the demo portfolio: ten applications spread over Jan to Jun 2023.
func SampleApplications() []models.LoanApplication {
	sample := func(name, email, phone, address string, amount float64, loanType models.LoanType, purpose, employment string, income float64, score int, status models.ApplicationStatus, created string) models.LoanApplication {
		app := models.LoanApplication{
			FullName:         name,
			Email:            email,
			Phone:            phone,
			Address:          address,
			LoanAmount:       amount,
			LoanType:         loanType,
			LoanPurpose:      purpose,
			EmploymentStatus: employment,
			MonthlyIncome:    income,
			CreditScore:      score,
			Status:           status,
		}
		app.CreatedAt = seedDate(created)
		app.UpdatedAt = app.CreatedAt
		return app
	}

	return []models.LoanApplication{
		sample("John Doe", "john.doe@example.com", "(123) 456-7890", "123 Main St, New York, NY 10001",
			10000, models.LoanTypePersonal, "Home renovation and repairs", "Full-time", 5000, 720, models.ApplicationStatusApproved, "2023-01-15"),
		sample("Jane Smith", "jane.smith@example.com", "(234) 567-8901", "456 Elm St, Los Angeles, CA 90001",
			25000, models.LoanTypeBusiness, "Starting a small cafe", "Self-employed", 7500, 680, models.ApplicationStatusPending, "2023-02-10"),
		sample("Michael Johnson", "michael.j@example.com", "(345) 678-9012", "789 Oak St, Chicago, IL 60007",
			5000, models.LoanTypePersonal, "Medical expenses", "Part-time", 3000, 640, models.ApplicationStatusRejected, "2023-02-20"),
		sample("Emily Wilson", "emily.w@example.com", "(456) 789-0123", "101 Pine St, Seattle, WA 98101",
			150000, models.LoanTypeMortgage, "Purchase of primary residence", "Full-time", 8500, 765, models.ApplicationStatusApproved, "2023-03-05"),
		sample("David Brown", "david.b@example.com", "(567) 890-1234", "202 Maple St, Austin, TX 78701",
			15000, models.LoanTypeEducation, "MBA program tuition", "Full-time", 6200, 700, models.ApplicationStatusPending, "2023-03-15"),
		sample("Sarah Miller", "sarah.m@example.com", "(678) 901-2345", "303 Cedar St, Boston, MA 02108",
			12000, models.LoanTypeAuto, "Purchase of a used car", "Full-time", 5500, 690, models.ApplicationStatusApproved, "2023-04-02"),
		sample("Robert Taylor", "robert.t@example.com", "(789) 012-3456", "404 Birch St, Denver, CO 80202",
			8000, models.LoanTypePersonal, "Debt consolidation", "Full-time", 4800, 650, models.ApplicationStatusPending, "2023-04-18"),
		sample("Jennifer Anderson", "jennifer.a@example.com", "(890) 123-4567", "505 Walnut St, Miami, FL 33101",
			35000, models.LoanTypeBusiness, "Expansion of online store", "Self-employed", 9000, 730, models.ApplicationStatusApproved, "2023-05-05"),
		sample("William Garcia", "william.g@example.com", "(901) 234-5678", "606 Spruce St, Philadelphia, PA 19019",
			6000, models.LoanTypeEducation, "Programming bootcamp", "Part-time", 2800, 620, models.ApplicationStatusRejected, "2023-05-20"),
		sample("Lisa Martinez", "lisa.m@example.com", "(012) 345-6789", "707 Ash St, San Francisco, CA 94016",
			18000, models.LoanTypeAuto, "Purchase of a new car", "Full-time", 6500, 710, models.ApplicationStatusPending, "2023-06-08"),
	}
}

// SeedSampleApplications replaces every stored application with the sample portfolio.
// Statuses are taken as given and not re-decided.
func SeedSampleApplications(db *gorm.DB) ([]models.LoanApplication, error) {
	logrus.Info("Seeding sample applications...")

	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.LoanApplication{}).Error; err != nil {
		return nil, fmt.Errorf("failed to clear applications: %w", err)
	}
	logrus.Info("Existing application data cleared")

	apps := SampleApplications()
	if err := db.Create(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to insert sample applications: %w", err)
	}

	logrus.WithField("count", len(apps)).Info("Sample applications seeded successfully")
	return apps, nil
}
