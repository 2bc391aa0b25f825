package main

import (
	"fmt"
	"log"

	"flag"

	"github.com/pu-ac-cn/sysadmin-backend/internal/config"
	"github.com/pu-ac-cn/sysadmin-backend/internal/database"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

// 一个只清理本系统业务表的重置工具：
// - 默认按依赖顺序 Drop 表，然后可选地 AutoMigrate 重建。
// - 仅影响本项目的业务表，不会删除数据库、用户或其它表。
// 用法：
//   go run ./cmd/resetdb -force
// 可选参数：
//   -recreate  重建表（默认 true）
//   -force     必须为 true 才会执行（安全开关）
func main() {
	recreate := flag.Bool("recreate", true, "是否在清空后重建表")
	force := flag.Bool("force", false, "确认执行清空操作")
	flag.Parse()

	if !*force {
		log.Fatal("为避免误操作，请加上 -force 参数：go run ./cmd/resetdb -force")
	}

	// 加载配置并连接数据库
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()

	db := database.GetDB()
	m := db.Migrator()

	// 注意依赖顺序：先删关联表再删实体表
	dropOrder := []any{
		&model.RolePermission{},
		&model.RoleDept{},
		&model.UserRole{},
		&model.OperationLog{},
		&model.Permission{},
		&model.Post{},
		&model.User{},
		&model.Role{},
		&model.Dept{},
	}

	for _, t := range dropOrder {
		if m.HasTable(t) {
			if err := m.DropTable(t); err != nil {
				log.Fatalf("删除表失败: %v", err)
			}
		}
	}
	fmt.Println("业务表已清空")

	if *recreate {
		for i := len(dropOrder) - 1; i >= 0; i-- {
			if err := m.AutoMigrate(dropOrder[i]); err != nil {
				log.Fatalf("重建表失败: %v", err)
			}
		}
		fmt.Println("业务表已重建，执行 go run ./cmd/migrate 写入初始数据")
	}
}
