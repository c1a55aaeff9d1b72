package rpc

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

const sqlCompanyStats = `SELECT ` +
	`(SELECT count(*) FROM profiles WHERE company_id = ?) AS profiles, ` +
	`(SELECT count(*) FROM posts WHERE company_id = ?) AS posts, ` +
	`(SELECT count(*) FROM comments WHERE company_id = ?) AS comments, ` +
	`(SELECT count(*) FROM courses WHERE company_id = ?) AS courses, ` +
	`(SELECT count(*) FROM course_completions WHERE company_id = ?) AS course_completions, ` +
	`(SELECT count(*) FROM purchases WHERE company_id = ?) AS purchases, ` +
	`(SELECT count(*) FROM events WHERE company_id = ?) AS events, ` +
	`(SELECT COALESCE(sum(coins), 0) FROM profiles WHERE company_id = ?) AS coins_in_circulation`

type CompanyStats struct {
	Profiles           int64           `gorm:"column:profiles" json:"profiles"`
	Posts              int64           `gorm:"column:posts" json:"posts"`
	Comments           int64           `gorm:"column:comments" json:"comments"`
	Courses            int64           `gorm:"column:courses" json:"courses"`
	CourseCompletions  int64           `gorm:"column:course_completions" json:"course_completions"`
	Purchases          int64           `gorm:"column:purchases" json:"purchases"`
	Events             int64           `gorm:"column:events" json:"events"`
	CoinsInCirculation decimal.Decimal `gorm:"column:coins_in_circulation" json:"coins_in_circulation"`
}

type CompanyStatsArgs struct{}

var companyStats = define("company_stats",
	"Summarize the company's activity for the admin dashboard.",
	model.RoleAdmin,
	nil,
	func(tx *gorm.DB, call *Call, _ *CompanyStatsArgs) (interface{}, error) {
		args := make([]interface{}, 8)
		for i := range args {
			args[i] = call.company()
		}
		var stats CompanyStats
		if err := tx.Raw(sqlCompanyStats, args...).Scan(&stats).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		return &stats, nil
	})
