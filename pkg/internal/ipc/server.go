// Package ipc 提供守护进程的本地命令通道（Unix 域套接字）.
// 协议是行式的：客户端发一行命令，服务端回一行应答（JSON 或 OK），连接即关.
//
// 支持的命令：
//
//	STATUS        -> EngineStatus JSON
//	SEARCH <词>   -> FileResult 数组 JSON
//	GET_RULES     -> Rule 数组 JSON
//	REBUILD       -> OK（清空内容库并发起重扫）
//	UNDO          -> OK（撤销最近一次可逆动作）
//
// 未知命令统一回 OK，老版本前端不会因此崩溃.
package ipc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filesentry/pkg/configs"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/service"
	nlog "github.com/yeisme/filesentry/pkg/log"
	"github.com/yeisme/filesentry/pkg/metrics"
)

// 命令字.
const (
	CmdStatus   = "STATUS"
	CmdSearch   = "SEARCH"
	CmdRebuild  = "REBUILD"
	CmdUndo     = "UNDO"
	CmdGetRules = "GET_RULES"
)

// respOK 无数据应答.
const respOK = "OK"

// EngineStatus STATUS 命令的应答体.
type EngineStatus struct {
	State        string `json:"state"`
	IndexedCount int64  `json:"indexed_count"`
	IsCrawling   bool   `json:"is_crawling"`
}

// Engine 命令通道背后的守护进程能力集，由组装层实现.
type Engine interface {
	Status(ctx context.Context) (EngineStatus, error)
	Search(ctx context.Context, query string) []service.FileResult
	Rebuild(ctx context.Context) error
	Undo(ctx context.Context) error
	Rules(ctx context.Context) ([]model.Rule, error)
}

// Server 监听 Unix 域套接字并分发命令.每个连接独立 goroutine 处理.
type Server struct {
	config   configs.IPCConfig
	engine   Engine
	listener net.Listener

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer 创建命令通道服务端.
func NewServer(engine Engine) *Server {
	return &Server{
		config: configs.GetConfig().IPC,
		engine: engine,
	}
}

// Start 绑定套接字并开始接受连接.残留的套接字文件先删再绑.
func (s *Server) Start(ctx context.Context) error {
	socketPath := s.config.GetSocketPath()

	// 上次异常退出可能留下死套接字
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}

	s.listener = listener
	ctx, s.cancel = context.WithCancel(ctx)

	nlog.Logger().Info().Str("socket", socketPath).Msg("ipc server listening")

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}

				nlog.Logger().Warn().Err(err).Msg("ipc accept failed")

				continue
			}

			s.wg.Add(1)

			go func() {
				defer s.wg.Done()
				s.handle(ctx, conn)
			}()
		}
	}()

	return nil
}

// Stop 关闭监听并等待在途连接处理完.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.wg.Wait()
	_ = os.Remove(s.config.GetSocketPath())
}

// handle 处理单个连接：读一行命令，写一行应答.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Duration(s.config.ReadTimeoutS) * time.Second))

	reader := bufio.NewReader(conn)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return
	}

	command, arg := splitCommand(line)
	metrics.IPCCommands.WithLabelValues(command).Inc()
	nlog.Logger().Debug().Str("command", command).Msg("ipc command received")

	response := s.dispatch(ctx, command, arg)

	_ = conn.SetWriteDeadline(time.Now().Add(time.Duration(s.config.WriteTimeoutS) * time.Second))
	_, _ = conn.Write(append([]byte(response), '\n'))
}

// splitCommand 拆出命令字和参数.命令字大小写不敏感，参数保留原样.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)

	command, arg, found := strings.Cut(line, " ")
	if !found {
		return strings.ToUpper(line), ""
	}

	return strings.ToUpper(command), strings.TrimSpace(arg)
}

func (s *Server) dispatch(ctx context.Context, command, arg string) string {
	switch command {
	case CmdStatus:
		status, err := s.engine.Status(ctx)
		if err != nil {
			nlog.Logger().Error().Err(err).Msg("status command failed")

			return respOK
		}

		return marshal(status)

	case CmdSearch:
		return marshal(s.engine.Search(ctx, arg))

	case CmdGetRules:
		rules, err := s.engine.Rules(ctx)
		if err != nil {
			nlog.Logger().Error().Err(err).Msg("get_rules command failed")

			return marshal([]model.Rule{})
		}

		return marshal(rules)

	case CmdRebuild:
		if err := s.engine.Rebuild(ctx); err != nil {
			nlog.Logger().Error().Err(err).Msg("rebuild command failed")
		}

		return respOK

	case CmdUndo:
		if err := s.engine.Undo(ctx); err != nil && !errors.Is(err, service.ErrNothingToUndo) {
			nlog.Logger().Error().Err(err).Msg("undo command failed")
		}

		return respOK

	default:
		// 未知命令不报错，保持前后端版本宽松兼容
		return respOK
	}
}

// marshal 序列化应答；序列化失败退化为 OK，绝不让应答缺行.
func marshal(v any) string {
	data, err := sonic.Marshal(v)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("ipc response marshal failed")

		return respOK
	}

	return string(data)
}
