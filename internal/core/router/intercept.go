package router

import (
	"github.com/dep2p/go-ecosgate/internal/core/feedback"
	"github.com/dep2p/go-ecosgate/pkg/ecos"
)

// Intercepted 对象 id 是否由网关自己回答
func Intercepted(objectID int) bool {
	return objectID == feedback.BusObjectID || feedback.IsModuleID(objectID)
}

// reply 为被拦截的命令生成回复；不回答时 ok 为 false
func (r *Router) reply(cmd *ecos.Command) (msg string, ok bool) {
	id := cmd.ObjectID

	switch cmd.Kind {
	case ecos.KindRequest:
		return ecos.ReplyRequestView(id), true

	case ecos.KindGet:
		if id == feedback.BusObjectID {
			return ecos.ReplyEmpty(cmd.String()), true
		}
		m, found := r.pool.Get(id)
		if !found {
			return "", false
		}
		opts := cmd.Options()
		switch {
		case len(opts) == 0:
			return ecos.ReplyModuleInfo(id, m.Hex()), true
		case len(opts) == 1 && opts[0].Name == "state":
			return ecos.EventState(id, m.Hex()), true
		default:
			return ecos.ReplyAttributes(cmd.String(), id, selectAttributes(m.Hex(), opts)), true
		}

	case ecos.KindQueryObjects:
		if id != feedback.BusObjectID {
			return "", false
		}
		if cmd.FirstArgument() == "ports" {
			return ecos.ReplyQueryPorts(id, r.pool.ConfiguredIDs()), true
		}
		return ecos.ReplyQueryObjects(id, r.pool.ConfiguredIDs()), true
	}

	return "", false
}

// selectAttributes 按请求顺序挑选模块属性，未知属性跳过
func selectAttributes(hex string, opts []ecos.Argument) []ecos.Attribute {
	all := ecos.ModuleAttributes(hex)
	out := make([]ecos.Attribute, 0, len(opts))
	for _, o := range opts {
		for _, a := range all {
			if a.Name == o.Name {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
