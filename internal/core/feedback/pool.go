package feedback

import (
	"fmt"

	"github.com/benbjohnson/clock"
)

const (
	// BusObjectID 反馈总线自身在站点中的虚拟对象 ID
	BusObjectID = 26
	// BaseObjectID 第一个反馈模块的对象 ID
	BaseObjectID = 100
	// PoolSize 模块池大小
	PoolSize = 32
	// LastObjectID 最后一个反馈模块的对象 ID
	LastObjectID = BaseObjectID + PoolSize - 1
)

// IsModuleID id 是否落在反馈模块的对象 ID 范围内
func IsModuleID(id int) bool {
	return id >= BaseObjectID && id <= LastObjectID
}

// ObjectIDForDevice 设备模块号（1 起）→ 对象 ID
func ObjectIDForDevice(deviceID int) int {
	return BaseObjectID + deviceID - 1
}

// Pool 固定大小的模块池
//
// 模块在构造时全部分配，之后集合不再变化，读取无需加锁；
// 每个模块的更新由模块自身串行化。
type Pool struct {
	modules    [PoolSize]*ModuleState
	configured int
}

// NewPool 创建模块池
//
// configured 是实际接在总线上的模块数（left+middle+right），超出范围时截断。
func NewPool(configured int, th Thresholds, clk clock.Clock) *Pool {
	if clk == nil {
		clk = clock.New()
	}
	if configured < 0 {
		configured = 0
	}
	if configured > PoolSize {
		configured = PoolSize
	}

	p := &Pool{configured: configured}
	for i := range p.modules {
		p.modules[i] = NewModuleState(BaseObjectID+i, th, clk)
	}
	return p
}

// Get 按对象 ID 取模块
func (p *Pool) Get(objectID int) (*ModuleState, bool) {
	if !IsModuleID(objectID) {
		return nil, false
	}
	return p.modules[objectID-BaseObjectID], true
}

// ByDevice 按设备模块号（1 起）取模块
func (p *Pool) ByDevice(deviceID int) (*ModuleState, bool) {
	return p.Get(ObjectIDForDevice(deviceID))
}

// Configured 返回前 n 个已配置的模块，按对象 ID 升序
func (p *Pool) Configured() []*ModuleState {
	out := make([]*ModuleState, p.configured)
	copy(out, p.modules[:p.configured])
	return out
}

// ConfiguredIDs 返回已配置模块的对象 ID
func (p *Pool) ConfiguredIDs() []int {
	ids := make([]int, p.configured)
	for i := range ids {
		ids[i] = BaseObjectID + i
	}
	return ids
}

// Count 已配置的模块数
func (p *Pool) Count() int {
	return p.configured
}

// Apply 把一次读数路由到对应模块并执行去抖更新
func (p *Pool) Apply(r Reading) (*ModuleState, bool, error) {
	m, ok := p.ByDevice(r.DeviceID)
	if !ok {
		return nil, false, fmt.Errorf("device module %d out of range 1..%d", r.DeviceID, PoolSize)
	}
	return m, m.Update(r.Hex), nil
}
