package solast

// tokenASTJSON is a trimmed compact AST for an upgradeable token: an abstract
// base with init functions, and a concrete contract with a guarded
// constructor, an initializer, and an ERC-7201 namespaced struct.
const tokenASTJSON = `{
  "id": 100,
  "nodeType": "SourceUnit",
  "absolutePath": "contracts/MyToken.sol",
  "nodes": [
    {
      "id": 10,
      "nodeType": "ContractDefinition",
      "name": "OwnableUpgradeable",
      "contractKind": "contract",
      "abstract": true,
      "canonicalName": "OwnableUpgradeable",
      "linearizedBaseContracts": [10],
      "baseContracts": [],
      "nodes": [
        {
          "id": 11,
          "nodeType": "FunctionDefinition",
          "name": "__Ownable_init",
          "kind": "function",
          "modifiers": [
            {"id": 12, "nodeType": "ModifierInvocation", "modifierName": {"id": 13, "nodeType": "IdentifierPath", "name": "onlyInitializing"}}
          ],
          "body": {
            "id": 14,
            "nodeType": "Block",
            "statements": [
              {
                "id": 15,
                "nodeType": "ExpressionStatement",
                "expression": {
                  "id": 16,
                  "nodeType": "FunctionCall",
                  "expression": {"id": 17, "nodeType": "Identifier", "name": "__Ownable_init_unchained", "referencedDeclaration": 20},
                  "arguments": []
                }
              }
            ]
          }
        },
        {
          "id": 20,
          "nodeType": "FunctionDefinition",
          "name": "__Ownable_init_unchained",
          "kind": "function",
          "modifiers": [
            {"id": 21, "nodeType": "ModifierInvocation", "modifierName": {"id": 22, "nodeType": "IdentifierPath", "name": "onlyInitializing"}}
          ],
          "body": {"id": 23, "nodeType": "Block", "statements": []}
        }
      ]
    },
    {
      "id": 30,
      "nodeType": "ContractDefinition",
      "name": "MyToken",
      "contractKind": "contract",
      "abstract": false,
      "canonicalName": "MyToken",
      "linearizedBaseContracts": [30, 10],
      "baseContracts": [
        {"id": 31, "nodeType": "InheritanceSpecifier", "baseName": {"id": 32, "nodeType": "IdentifierPath", "name": "OwnableUpgradeable", "referencedDeclaration": 10}}
      ],
      "nodes": [
        {
          "id": 33,
          "nodeType": "StructDefinition",
          "name": "MainStorage",
          "canonicalName": "MyToken.MainStorage",
          "documentation": {"id": 34, "nodeType": "StructuredDocumentation", "text": "@custom:storage-location erc7201:mytoken.storage.Main"},
          "nodes": []
        },
        {
          "id": 35,
          "nodeType": "VariableDeclaration",
          "name": "totalSupply",
          "stateVariable": true,
          "mutability": "mutable",
          "typeName": {"id": 36, "nodeType": "ElementaryTypeName", "name": "uint256"}
        },
        {
          "id": 37,
          "nodeType": "VariableDeclaration",
          "name": "VERSION",
          "stateVariable": true,
          "mutability": "constant",
          "typeName": {"id": 38, "nodeType": "ElementaryTypeName", "name": "uint256"}
        },
        {
          "id": 40,
          "nodeType": "FunctionDefinition",
          "name": "",
          "kind": "constructor",
          "modifiers": [],
          "body": {
            "id": 41,
            "nodeType": "Block",
            "statements": [
              {
                "id": 42,
                "nodeType": "ExpressionStatement",
                "expression": {
                  "id": 43,
                  "nodeType": "FunctionCall",
                  "expression": {"id": 44, "nodeType": "Identifier", "name": "_disableInitializers"},
                  "arguments": []
                }
              }
            ]
          }
        },
        {
          "id": 50,
          "nodeType": "FunctionDefinition",
          "name": "initialize",
          "kind": "function",
          "documentation": "Sets up the token exactly once post-deployment.",
          "modifiers": [
            {"id": 51, "nodeType": "ModifierInvocation", "modifierName": {"id": 52, "nodeType": "IdentifierPath", "name": "initializer"}}
          ],
          "body": {
            "id": 53,
            "nodeType": "Block",
            "statements": [
              {
                "id": 54,
                "nodeType": "ExpressionStatement",
                "expression": {
                  "id": 55,
                  "nodeType": "FunctionCall",
                  "expression": {"id": 56, "nodeType": "Identifier", "name": "__Ownable_init", "referencedDeclaration": 11},
                  "arguments": []
                }
              }
            ]
          }
        }
      ]
    }
  ]
}`
