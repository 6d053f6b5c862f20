// Package policy maps security levels to key-generation requirements and
// retrieval behaviour.
//
// Levels are totally ordered by rank:
//
//	L1_Encrypted < L2_DeviceUnlocked < L3_UserPresence < L4_Biometrics
//
// L3 and L4 keys require user authentication and are read through the
// user-presence gate. L3 accepts a device credential or strong biometric,
// L4 accepts strong biometrics only.
//
// Everything here is a pure function of its inputs. Device capabilities
// are queried through the Device interface each time a decision is made.
package policy
