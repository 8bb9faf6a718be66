package eventbus

import (
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/stretchr/testify/assert"

	pkgif "github.com/dep2p/go-ecosgate/pkg/interfaces"
)

func TestModule_Load(t *testing.T) {
	var loaded pkgif.EventBus

	app := fxtest.New(t,
		Module(),
		fx.Populate(&loaded),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.NotNil(t, loaded)
	_, ok := loaded.(*Bus)
	assert.True(t, ok)
}
