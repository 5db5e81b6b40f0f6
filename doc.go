/*
Package cardano binds two pre-compiled Plutus validators, a vesting lock and a
gift card minting policy, to concrete transaction plans.

The package does not build, balance or sign transactions itself. Contracts
produce a TxPlan: an ordered list of builder directives (inputs, script
attachments, redeemers, outputs with inline datums, collateral, change address
and the utxos the builder may select from). A TxBuilder, backed by the apollo
transaction builder, turns the plan into a signed transaction, and a
TxSubmitter (Blockfrost or a local node) sends it to the network.

Script parameters are applied to the blueprint templates by splicing data
constants into the flat encoded program, and script hashes, addresses and datums are derived locally so that lookups against
the chain indexer need nothing but a transaction hash.
*/

package cardano
