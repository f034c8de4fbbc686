package ipc

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filesentry/pkg/configs"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/service"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// 连接不上守护进程时客户端上报的状态.
const (
	StateDisconnected = "Disconnected"
	StateUnknown      = "Unknown"
)

// Client 命令通道客户端.短连接：每条命令一次连接.
type Client struct {
	config configs.IPCConfig
}

// NewClient 创建命令通道客户端.
func NewClient() *Client {
	return &Client{config: configs.GetConfig().IPC}
}

// Send 发送一行命令并读取一行应答.
// 连接失败按基础延迟线性放大重试，重试耗尽返回错误.
func (c *Client) Send(command string) (string, error) {
	socketPath := c.config.GetSocketPath()

	var lastErr error

	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		conn, err := net.DialTimeout("unix", socketPath, c.config.GetDialTimeout())
		if err != nil {
			lastErr = err

			nlog.Logger().Debug().Err(err).Int("attempt", attempt).Msg("ipc dial failed")
			time.Sleep(time.Duration(attempt) * c.config.GetRetryBase())

			continue
		}

		response, err := c.roundTrip(conn, command)
		_ = conn.Close()

		if err != nil {
			lastErr = err

			continue
		}

		return response, nil
	}

	return "", fmt.Errorf("engine unreachable at %s: %w", socketPath, lastErr)
}

func (c *Client) roundTrip(conn net.Conn, command string) (string, error) {
	deadline := time.Now().Add(time.Duration(c.config.ReadTimeoutS) * time.Second)
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		return "", err
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// Status 查询守护进程状态.连不上时返回 Disconnected 状态而不是错误，
// 前端把它当正常状态渲染.
func (c *Client) Status() EngineStatus {
	response, err := c.Send(CmdStatus)
	if err != nil {
		return EngineStatus{State: StateDisconnected}
	}

	var status EngineStatus
	if err := sonic.UnmarshalString(response, &status); err != nil {
		return EngineStatus{State: StateUnknown}
	}

	return status
}

// Search 全文检索.
func (c *Client) Search(query string) ([]service.FileResult, error) {
	response, err := c.Send(CmdSearch + " " + query)
	if err != nil {
		return nil, err
	}

	var results []service.FileResult
	if err := sonic.UnmarshalString(response, &results); err != nil {
		return nil, fmt.Errorf("malformed search response: %w", err)
	}

	return results, nil
}

// Rules 获取当前生效的自动化规则.
func (c *Client) Rules() ([]model.Rule, error) {
	response, err := c.Send(CmdGetRules)
	if err != nil {
		return nil, err
	}

	var rules []model.Rule
	if err := sonic.UnmarshalString(response, &rules); err != nil {
		return nil, fmt.Errorf("malformed rules response: %w", err)
	}

	return rules, nil
}

// Rebuild 触发内容库重建.
func (c *Client) Rebuild() error {
	_, err := c.Send(CmdRebuild)

	return err
}

// Undo 撤销最近一次可逆动作.
func (c *Client) Undo() error {
	_, err := c.Send(CmdUndo)

	return err
}
