/*
Package schemafile loads type declarations from YAML files and registers
them with a schema registry.

A declaration file holds one or more types, each with an ordered field
list. Field order in the file is the registration order, which compiled
schemas preserve in their descriptions:

	types:
	  - id: user
	    description: a registered account
	    fields:
	      - name: email
	        type: string
	        rules:
	          - kind: email
	      - name: age
	        type: number
	        rules:
	          - kind: minimum
	            value: 0
	          - kind: maximum
	            value: 150
	      - name: role
	        type: enum
	        values: [admin, member]
	      - name: home
	        type: object
	        ref: address
	        optional: true

A file may also declare tools, binding a name and description to one of
the declared types as its argument shape:

	tools:
	  - name: create_user
	    description: register a new account
	    args_type: user

Loading a file validates its structure (names, types, rule shapes) but
does not compile anything; rule compatibility and reference resolution
are checked by the compiler on first use.
*/
package schemafile
