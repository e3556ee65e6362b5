package initgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

func TestAnalyzeWellFormed(t *testing.T) {
	g := Build(ownablePausableToken())

	report, err := g.Analyze("MyToken")
	require.NoError(t, err)

	assert.True(t, report.Upgradeable())
	require.NotNil(t, report.Initializer)
	assert.Equal(t, ModifierInitializer, report.InitializerModifier)
	assert.Equal(t, []FuncRef{
		{Contract: "PausableUpgradeable", Name: "__Pausable_init"},
		{Contract: "OwnableUpgradeable", Name: "__Ownable_init"},
	}, report.ParentInits)
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Duplicated)
	assert.Empty(t, report.UnguardedInits)
	assert.True(t, report.HasConstructor)
	assert.Empty(t, report.ConstructorCalls)
}

func TestAnalyzeMissingParentInit(t *testing.T) {
	ownable := contract(10, "OwnableUpgradeable", true, []int{10},
		function(11, "__Ownable_init", "function", []string{"onlyInitializing"}))
	pausable := contract(20, "PausableUpgradeable", true, []int{20},
		function(21, "__Pausable_init", "function", []string{"onlyInitializing"}))
	token := contract(30, "MyToken", false, []int{30, 20, 10},
		function(31, "initialize", "function", []string{"initializer"}, "__Ownable_init"))

	g := Build(unit(ownable, pausable, token))
	report, err := g.Analyze("MyToken")
	require.NoError(t, err)

	assert.Equal(t, []FuncRef{{Contract: "PausableUpgradeable", Name: "__Pausable_init"}}, report.Missing)
	assert.Empty(t, report.Duplicated)
}

func TestAnalyzeDuplicateParentInit(t *testing.T) {
	t.Run("direct double call", func(t *testing.T) {
		ownable := contract(10, "OwnableUpgradeable", true, []int{10},
			function(11, "__Ownable_init", "function", []string{"onlyInitializing"}))
		token := contract(30, "MyToken", false, []int{30, 10},
			function(31, "initialize", "function", []string{"initializer"},
				"__Ownable_init", "__Ownable_init"))

		g := Build(unit(ownable, token))
		report, err := g.Analyze("MyToken")
		require.NoError(t, err)

		assert.Equal(t, []FuncRef{{Contract: "OwnableUpgradeable", Name: "__Ownable_init"}}, report.Duplicated)
	})

	t.Run("indirect double init of a shared base", func(t *testing.T) {
		// Both __Ownable_init and __Pausable_init chain into the same
		// unchained leaf, so calling both double-initializes it.
		ownable := contract(10, "OwnableUpgradeable", true, []int{10},
			function(11, "__Ownable_init", "function", []string{"onlyInitializing"}, "__Context_init_unchained"),
			function(12, "__Context_init_unchained", "function", []string{"onlyInitializing"}))
		pausable := contract(20, "PausableUpgradeable", true, []int{20},
			function(21, "__Pausable_init", "function", []string{"onlyInitializing"}, "__Context_init_unchained"))
		token := contract(30, "MyToken", false, []int{30, 20, 10},
			function(31, "initialize", "function", []string{"initializer"},
				"__Ownable_init", "__Pausable_init"))

		g := Build(unit(ownable, pausable, token))
		report, err := g.Analyze("MyToken")
		require.NoError(t, err)

		assert.Equal(t, []FuncRef{{Contract: "OwnableUpgradeable", Name: "__Context_init_unchained"}}, report.Duplicated)
	})
}

func TestAnalyzeUnguardedInit(t *testing.T) {
	base := contract(10, "VaultUpgradeable", true, []int{10},
		function(11, "__Vault_init", "function", nil),
		function(12, "__Vault_init_unchained", "function", []string{"onlyInitializing"}))

	g := Build(unit(base))
	report, err := g.Analyze("VaultUpgradeable")
	require.NoError(t, err)

	assert.Equal(t, []FuncRef{{Contract: "VaultUpgradeable", Name: "__Vault_init"}}, report.UnguardedInits)
}

func TestAnalyzeUnguardedEntryPoint(t *testing.T) {
	token := contract(30, "MyToken", false, []int{30},
		function(31, "initialize", "function", nil))

	g := Build(unit(token))
	report, err := g.Analyze("MyToken")
	require.NoError(t, err)

	require.NotNil(t, report.Initializer)
	assert.Empty(t, report.InitializerModifier)
}

func TestAnalyzeReinitializer(t *testing.T) {
	token := contract(30, "MyToken", false, []int{30},
		function(31, "reinitializeV2", "function", []string{"reinitializer"}))

	g := Build(unit(token))
	report, err := g.Analyze("MyToken")
	require.NoError(t, err)

	require.NotNil(t, report.Initializer)
	assert.Equal(t, KindReinitialize, report.Initializer.Kind)
	assert.Equal(t, ModifierReinitializer, report.InitializerModifier)
}

func TestAnalyzeConstructor(t *testing.T) {
	t.Run("disable initializers only", func(t *testing.T) {
		token := contract(30, "MyToken", false, []int{30},
			function(31, "", "constructor", nil, "_disableInitializers"))

		g := Build(unit(token))
		report, err := g.Analyze("MyToken")
		require.NoError(t, err)

		assert.True(t, report.HasConstructor)
		assert.Empty(t, report.ConstructorCalls)
	})

	t.Run("state-touching constructor", func(t *testing.T) {
		token := contract(30, "MyToken", false, []int{30},
			function(31, "", "constructor", nil, "_disableInitializers", "_mint"))

		g := Build(unit(token))
		report, err := g.Analyze("MyToken")
		require.NoError(t, err)

		assert.Equal(t, []string{"_mint"}, report.ConstructorCalls)
	})

	t.Run("state write without any call", func(t *testing.T) {
		ctor := function(31, "", "constructor", nil)
		ctor.Body.Statements = append(ctor.Body.Statements, &solast.Node{
			NodeType:   solast.NodeExpressionStatement,
			Expression: &solast.Node{NodeType: "Assignment"},
		})
		token := contract(30, "MyToken", false, []int{30}, ctor)

		g := Build(unit(token))
		report, err := g.Analyze("MyToken")
		require.NoError(t, err)

		assert.Empty(t, report.ConstructorCalls)
		assert.Equal(t, []string{"Assignment"}, report.ConstructorStatements)
	})

	t.Run("guarded call keeps non-call statements visible", func(t *testing.T) {
		ctor := function(31, "", "constructor", nil, "_disableInitializers")
		ctor.Body.Statements = append(ctor.Body.Statements,
			&solast.Node{NodeType: "VariableDeclarationStatement"})
		token := contract(30, "MyToken", false, []int{30}, ctor)

		g := Build(unit(token))
		report, err := g.Analyze("MyToken")
		require.NoError(t, err)

		assert.Empty(t, report.ConstructorCalls)
		assert.Equal(t, []string{"VariableDeclarationStatement"}, report.ConstructorStatements)
	})
}

func TestAnalyzeAbstractBaseOwesNothing(t *testing.T) {
	ownable := contract(10, "OwnableUpgradeable", true, []int{10},
		function(11, "__Ownable_init", "function", []string{"onlyInitializing"}))
	middle := contract(20, "ERC20Upgradeable", true, []int{20, 10},
		function(21, "__ERC20_init", "function", []string{"onlyInitializing"}, "__Ownable_init"))

	g := Build(unit(ownable, middle))
	report, err := g.Analyze("ERC20Upgradeable")
	require.NoError(t, err)

	assert.Nil(t, report.Initializer)
	assert.Equal(t, []FuncRef{{Contract: "OwnableUpgradeable", Name: "__Ownable_init"}}, report.ParentInits)
	// Abstract contracts defer initialization to the concrete leaf.
	assert.Empty(t, report.Missing)
}

func TestAnalyzeUnknownContract(t *testing.T) {
	g := Build(ownablePausableToken())
	_, err := g.Analyze("Nope")
	require.Error(t, err)
}
