package database

import (
	"fmt"
	"log"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	// TranslateError 把唯一索引冲突翻译成 gorm.ErrDuplicatedKey，
	// 单活跃路径、单进行中考试、幂等证书都依赖这一点。
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认跳过迁移，-migrate / -migrate-only 可强制执行
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")

		seedQuestions(db)
		seedCourses(db)
	}

	return db, nil
}

// Migrate 建表与索引。测试中也会用 sqlite 连接调用。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Course{},
		&model.Lesson{},
		&model.Progress{},
		&model.Assessment{},
		&model.AssessmentAnswer{},
		&model.CategoryScore{},
		&model.LearningPath{},
		&model.PathCourse{},
		&model.Recommendation{},
		&model.Exam{},
		&model.ExamAttempt{},
		&model.ExamAnswer{},
		&model.Certificate{},
	)
}

// seedQuestions 题库为空时写入默认测评题，保证新环境开箱即可测评。
func seedQuestions(db *gorm.DB) {
	var count int64
	db.Model(&model.Question{}).Count(&count)
	if count > 0 {
		return
	}

	questions := []model.Question{
		{
			Text:          "What does HTML stand for?",
			Options:       model.StringList{"Hyper Text Markup Language", "High Tech Modern Language", "Hyperlink and Text Markup Language", "Home Tool Markup Language"},
			CorrectAnswer: 0,
			Category:      "Web Development",
			Tags:          model.StringList{"html", "basics"},
			Difficulty:    model.Beginner,
			Points:        10,
		},
		{
			Text:          "Which CSS property controls the text size?",
			Options:       model.StringList{"text-style", "font-size", "text-size", "font-style"},
			CorrectAnswer: 1,
			Category:      "Web Development",
			Tags:          model.StringList{"css", "basics"},
			Difficulty:    model.Beginner,
			Points:        10,
		},
		{
			Text:          "What is a closure in JavaScript?",
			Options:       model.StringList{"A function bundled with its lexical scope", "A way to close browser windows", "A loop construct", "A CSS selector"},
			CorrectAnswer: 0,
			Category:      "JavaScript",
			Tags:          model.StringList{"javascript", "functions", "scope"},
			Difficulty:    model.Intermediate,
			Points:        10,
		},
		{
			Text:          "Which data structure uses LIFO ordering?",
			Options:       model.StringList{"Queue", "Stack", "Linked list", "Binary tree"},
			CorrectAnswer: 1,
			Category:      "Data Structures",
			Tags:          model.StringList{"stack", "fundamentals"},
			Difficulty:    model.Beginner,
			Points:        10,
		},
		{
			Text:          "What is the average time complexity of binary search?",
			Options:       model.StringList{"O(n)", "O(n log n)", "O(log n)", "O(1)"},
			CorrectAnswer: 2,
			Category:      "Algorithms",
			Tags:          model.StringList{"search", "complexity"},
			Difficulty:    model.Intermediate,
			Points:        10,
		},
		{
			Text:          "Which SQL statement retrieves data from a table?",
			Options:       model.StringList{"GET", "FETCH", "SELECT", "RETRIEVE"},
			CorrectAnswer: 2,
			Category:      "Databases",
			Tags:          model.StringList{"sql", "basics"},
			Difficulty:    model.Beginner,
			Points:        10,
		},
	}
	for i := range questions {
		db.Create(&questions[i])
	}
}

// seedCourses 课程目录为空时写入示例课程与课时。
func seedCourses(db *gorm.DB) {
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count > 0 {
		return
	}

	courses := []model.Course{
		{
			Title:        "Web Development Fundamentals",
			Description:  "HTML, CSS and the basics of building web pages.",
			Category:     "Web Development",
			Tags:         model.StringList{"html", "css", "basics"},
			Difficulty:   model.Beginner,
			Rating:       4.5,
			TotalLessons: 3,
			IsPublished:  true,
		},
		{
			Title:        "JavaScript Essentials",
			Description:  "Core JavaScript: types, functions, closures and async.",
			Category:     "JavaScript",
			Tags:         model.StringList{"javascript", "functions", "async"},
			Difficulty:   model.Intermediate,
			Rating:       4.7,
			TotalLessons: 3,
			IsPublished:  true,
		},
	}
	for i := range courses {
		db.Create(&courses[i])
		for j := 1; j <= courses[i].TotalLessons; j++ {
			db.Create(&model.Lesson{
				CourseID: courses[i].ID,
				Title:    fmt.Sprintf("%s - Lesson %d", courses[i].Title, j),
				Order:    j,
				Duration: 30,
			})
		}
	}
}
