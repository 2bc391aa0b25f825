// 为现有用户分配超级管理员角色的工具
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pu-ac-cn/sysadmin-backend/internal/config"
	"github.com/pu-ac-cn/sysadmin-backend/internal/database"
	"github.com/pu-ac-cn/sysadmin-backend/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("用法: assign-admin <用户名>")
		fmt.Println("示例: assign-admin zhangsan")
		os.Exit(1)
	}

	userName := os.Args[1]

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()

	db := database.GetDB()

	// 查找用户
	var user model.User
	if err := db.Where("user_name = ? AND del_flag = ?", userName, false).First(&user).Error; err != nil {
		log.Fatalf("用户不存在: %s", userName)
	}

	// 查找管理员角色
	var adminRole model.Role
	if err := db.Where("role_key = ? AND del_flag = ?", "admin", false).First(&adminRole).Error; err != nil {
		log.Fatalf("管理员角色不存在，请先执行 go run ./cmd/migrate")
	}

	// 绑定角色（幂等）
	binding := model.UserRole{RoleID: adminRole.ID, UserID: user.ID}
	if err := db.FirstOrCreate(&binding, binding).Error; err != nil {
		log.Fatalf("分配角色失败: %v", err)
	}

	fmt.Printf("已为用户 %s (ID: %d) 分配超级管理员角色\n", user.UserName, user.ID)
}
