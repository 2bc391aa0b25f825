package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 标准响应结构
// 字段顺序：code -> msg -> data
type Response struct {
	Code int         `json:"code"` // 业务状态码，0 表示成功
	Msg  string      `json:"msg"`  // 响应消息（中文）
	Data interface{} `json:"data"` // 响应数据
}

// 业务错误码
const (
	CodeSuccess = 0 // 操作成功

	// 参数错误 10xxx
	CodeInvalidRequest = 10001 // 请求参数无效
	CodeUnknownField   = 10002 // 包含未定义的字段
	CodeMissingField   = 10003 // 必填字段缺失

	// 认证与授权错误 20xxx
	CodeInvalidCredentials = 20001 // 用户名或密码错误
	CodeInvalidToken       = 20002 // 令牌无效或已过期
	CodeAccountLocked      = 20003 // 账号已被锁定
	CodeSessionRevoked     = 20004 // 会话已失效
	CodeForbidden          = 20005 // 无权执行该操作
	CodeOutOfScope         = 20006 // 超出数据权限范围

	// 资源不存在 40xxx
	CodeNotFound       = 40001 // 资源不存在
	CodeParentNotFound = 40002 // 上级部门不存在

	// 冲突错误 50xxx
	CodeCycleDetected = 50001 // 部门迁移会形成环
	CodeHasDependents = 50002 // 存在关联数据，禁止删除

	// 服务器错误 90xxx
	CodeServerError = 90001 // 服务器内部错误
)

// 错误码对应的消息
var codeMessages = map[int]string{
	CodeSuccess:            "操作成功",
	CodeInvalidRequest:     "请求参数无效",
	CodeUnknownField:       "包含未定义的字段",
	CodeMissingField:       "必填字段缺失",
	CodeInvalidCredentials: "用户名或密码错误",
	CodeInvalidToken:       "令牌无效或已过期",
	CodeAccountLocked:      "账号已被锁定，请稍后重试",
	CodeSessionRevoked:     "会话已失效，请重新登录",
	CodeForbidden:          "无权执行该操作",
	CodeOutOfScope:         "超出数据权限范围",
	CodeNotFound:           "资源不存在",
	CodeParentNotFound:     "上级部门不存在",
	CodeCycleDetected:      "不能把部门移动到它自己的子部门下",
	CodeHasDependents:      "存在关联数据，禁止删除",
	CodeServerError:        "服务器内部错误，请稍后重试",
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  codeMessages[CodeSuccess],
		Data: data,
	})
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  msg,
		Data: data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int) {
	msg, ok := codeMessages[code]
	if !ok {
		msg = "未知错误"
	}
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: nil,
	})
}

// ErrorWithMsg 错误响应（自定义消息）
func ErrorWithMsg(c *gin.Context, code int, msg string) {
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: nil,
	})
}

// codeToHTTPStatus 业务错误码转 HTTP 状态码
func codeToHTTPStatus(code int) int {
	switch {
	case code == CodeSuccess:
		return http.StatusOK
	case code >= 10000 && code < 20000:
		return http.StatusBadRequest
	case code >= 20000 && code < 30000:
		if code == CodeInvalidToken || code == CodeInvalidCredentials ||
			code == CodeAccountLocked || code == CodeSessionRevoked {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case code >= 40000 && code < 50000:
		return http.StatusNotFound
	case code >= 50000 && code < 60000:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
