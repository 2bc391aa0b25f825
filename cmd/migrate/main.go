// Package main 数据库迁移与初始数据工具
package main

import (
	"flag"
	"log"

	"gorm.io/gorm"

	"github.com/pu-ac-cn/sysadmin-backend/internal/config"
	"github.com/pu-ac-cn/sysadmin-backend/internal/database"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "", "配置文件路径")
	seed := flag.Bool("seed", true, "迁移后写入初始数据")
	adminPassword := flag.String("admin-password", "admin123", "初始管理员密码")
	flag.Parse()

	// 加载配置
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 执行迁移
	log.Println("开始执行数据库迁移...")

	models := []any{
		&model.Dept{},
		&model.User{},
		&model.Role{},
		&model.Post{},
		&model.Permission{},
		&model.OperationLog{},
		&model.RoleDept{},
		&model.RolePermission{},
		&model.UserRole{},
	}

	for _, m := range models {
		if err := database.AutoMigrate(m); err != nil {
			log.Fatalf("迁移失败: %v", err)
		}
	}
	log.Println("数据库迁移完成")

	if !*seed {
		return
	}
	if err := seedData(database.GetDB(), *adminPassword); err != nil {
		log.Fatalf("初始数据写入失败: %v", err)
	}
	log.Println("初始数据写入完成")
}

// seedData 写入根部门、权限矩阵、管理员角色与管理员账号
// 可重复执行：已存在的记录保持不变
func seedData(db *gorm.DB, adminPassword string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// 根部门
		root := &model.Dept{
			BaseModel: model.BaseModel{ID: 1, Status: true, CreateBy: 1},
			Name:      "集团总公司",
		}
		if err := tx.FirstOrCreate(root, "id = ?", 1).Error; err != nil {
			return err
		}
		if root.DeptPath == "" || root.DeptPath == model.RootDeptPath {
			root.DeptPath = model.ChildDeptPath(model.RootDeptPath, root.ID)
			if err := tx.Model(root).Update("dept_path", root.DeptPath).Error; err != nil {
				return err
			}
		}

		// 权限矩阵
		for _, perm := range model.DefaultPermissions(1) {
			p := perm
			if err := tx.FirstOrCreate(&p, "key = ?", p.Key).Error; err != nil {
				return err
			}
		}

		// 管理员角色
		adminRole := &model.Role{
			BaseModel:     model.BaseModel{Status: true, CreateBy: 1},
			Name:          "超级管理员",
			RoleKey:       "admin",
			IsAdmin:       true,
			DataScopeType: model.ScopeAll,
		}
		if err := tx.FirstOrCreate(adminRole, "role_key = ?", "admin").Error; err != nil {
			return err
		}

		// 管理员账号
		var count int64
		if err := tx.Model(&model.User{}).Where("user_name = ?", "admin").Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			admin := &model.User{
				BaseModel: model.BaseModel{Status: true, CreateBy: 1},
				DeptID:    root.ID,
				UserName:  "admin",
				Name:      "系统管理员",
			}
			if err := admin.SetPassword(adminPassword); err != nil {
				return err
			}
			if err := tx.Create(admin).Error; err != nil {
				return err
			}
			if err := tx.Create(&model.UserRole{RoleID: adminRole.ID, UserID: admin.ID}).Error; err != nil {
				return err
			}
			log.Printf("管理员账号已创建: admin / %s", adminPassword)
		}
		return nil
	})
}
