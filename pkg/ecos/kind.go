package ecos

// Kind 命令种类
type Kind int

const (
	// KindUnknown 未识别的命令，原样透传
	KindUnknown Kind = iota
	// KindGet get(...)
	KindGet
	// KindRequest request(...)
	KindRequest
	// KindQueryObjects queryObjects(...)
	KindQueryObjects
	// KindSet set(...)
	KindSet
	// KindRelease release(...)
	KindRelease
)

// 线路上的命令名，大小写敏感
const (
	NameGet          = "get"
	NameRequest      = "request"
	NameQueryObjects = "queryObjects"
	NameSet          = "set"
	NameRelease      = "release"
)

var kindByName = map[string]Kind{
	NameGet:          KindGet,
	NameRequest:      KindRequest,
	NameQueryObjects: KindQueryObjects,
	NameSet:          KindSet,
	NameRelease:      KindRelease,
}

// KindOf 按命令名返回种类，未知名称返回 KindUnknown
func KindOf(name string) Kind {
	if k, ok := kindByName[name]; ok {
		return k
	}
	return KindUnknown
}

// String 返回种类名称
func (k Kind) String() string {
	switch k {
	case KindGet:
		return NameGet
	case KindRequest:
		return NameRequest
	case KindQueryObjects:
		return NameQueryObjects
	case KindSet:
		return NameSet
	case KindRelease:
		return NameRelease
	default:
		return "unknown"
	}
}
