package ecosgate

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Start 启动网关
//
// 按依赖顺序执行所有组件的 OnStart：监听端口、站点监管、设备读取、
// HTTP 服务。任一组件启动失败时已启动的组件被回滚，网关回到空闲状态。
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.stopped {
		return ErrGatewayClosed
	}
	if g.started {
		return ErrAlreadyStarted
	}

	g.state = StateInitializing
	log.Info("正在启动网关", "version", Version)

	initCtx, initCancel := context.WithTimeout(ctx, initializeTimeout)
	defer initCancel()

	// 启动 Fx 应用（调用所有模块的 OnStart）
	if err := g.app.Start(initCtx); err != nil {
		g.state = StateIdle
		log.Error("网关启动失败", "error", err)
		return fmt.Errorf("initialize failed: %w", err)
	}

	g.started = true
	g.state = StateRunning
	log.Info("网关已启动",
		"listen", g.server.Addr(),
		"station", g.cfg.Runtime.ConnectToEcos,
		"device", g.device != nil,
		"modules", g.pool.Count())
	return nil
}

// Stop 停止网关
//
// 关闭监听和所有会话（排空发送队列）、站点连接、设备和 HTTP 服务。
// 停止后网关不可再次启动。
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || g.stopped {
		return ErrGatewayClosed
	}
	if !g.started {
		return ErrNotStarted
	}
	return g.stopLocked(ctx)
}

// Close 停止网关并释放通过 WithCloser 注册的资源
//
// 可以重复调用；未启动的网关只释放资源。
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	var err error
	if g.started {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		err = multierr.Append(err, g.stopLocked(ctx))
		cancel()
	}
	g.closed = true

	for _, c := range g.closers {
		err = multierr.Append(err, c.Close())
	}
	g.closers = nil
	return err
}

// stopLocked 停止 Fx 应用，调用方持有 g.mu
func (g *Gateway) stopLocked(ctx context.Context) error {
	g.state = StateStopping
	log.Info("正在停止网关")

	// 停止 Fx 应用（自动按反向顺序调用 OnStop）
	err := g.app.Stop(ctx)

	// 即使停止出错也标记为已停止，组件不可重用
	g.state = StateStopped
	g.started = false
	g.stopped = true

	if err != nil {
		log.Error("停止网关失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}
	log.Info("网关已停止")
	return nil
}
